package service

import (
	"errors"
	"strings"
	"testing"
)

func TestRandomCode_Alphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := randomCode(codeLength)
		if len(code) != codeLength {
			t.Fatalf("randomCode() length = %d, want %d", len(code), codeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("randomCode() produced %q outside alphabet", ch)
			}
		}
	}
}

func TestCodeAlphabet_NoConfusableChars(t *testing.T) {
	for _, ch := range "IO01" {
		if strings.ContainsRune(codeAlphabet, ch) {
			t.Errorf("alphabet contains confusable character %q", ch)
		}
	}
}

func TestAllocateCode_NoCollision(t *testing.T) {
	code, err := allocateCode(func(string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("allocateCode() error = %v", err)
	}
	if len(code) != codeLength {
		t.Errorf("allocateCode() length = %d, want %d", len(code), codeLength)
	}
}

func TestAllocateCode_FallsBackToLongerCode(t *testing.T) {
	// every 6-char code is taken, 8-char codes are free
	code, err := allocateCode(func(c string) (bool, error) {
		return len(c) == codeLength, nil
	})
	if err != nil {
		t.Fatalf("allocateCode() error = %v", err)
	}
	if len(code) != fallbackCodeLength {
		t.Errorf("allocateCode() length = %d, want %d", len(code), fallbackCodeLength)
	}
}

func TestAllocateCode_Exhausted(t *testing.T) {
	calls := 0
	_, err := allocateCode(func(string) (bool, error) {
		calls++
		return true, nil
	})
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("allocateCode() error = %v, want ErrCodeSpaceExhausted", err)
	}
	if calls != 2*codeAttempts {
		t.Errorf("allocateCode() attempts = %d, want %d", calls, 2*codeAttempts)
	}
}

func TestAllocateCode_PropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := allocateCode(func(string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("allocateCode() error = %v, want lookup error", err)
	}
}
