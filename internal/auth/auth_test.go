package auth

import (
	"testing"

	"classpulse/internal/models"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "password123", false},
		{"empty password", "", false},
		{"long password", "a" + string(make([]byte, 70)), false}, // bcrypt max is 72 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && hash == "" {
				t.Error("HashPassword() returned empty hash")
			}
		})
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "testpassword"
	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	if hash1 == hash2 {
		t.Error("HashPassword() should produce different hashes for same password")
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"correct password", hash, password, true},
		{"wrong password", hash, "wrongpassword", false},
		{"empty password", hash, "", false},
		{"invalid hash", "invalidhash", password, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret-key"
	user := models.User{ID: 42, Email: "ana@example.com", Role: models.RoleProfessor}

	token, err := GenerateToken(user, secret, 7)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("ParseToken() UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != models.RoleProfessor {
		t.Errorf("ParseToken() Role = %q, want professor", claims.Role)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("ParseToken() Email = %q", claims.Email)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	secret := "test-secret"
	user := models.User{ID: 1, Email: "x@example.com", Role: models.RoleStudent}
	token, err := GenerateToken(user, secret, 7)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", token, "wrong-secret"},
		{"garbage token", "invalid.token.here", secret},
		{"empty token", "", secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); err == nil {
				t.Error("ParseToken() should fail")
			}
		})
	}
}

func TestParseToken_Expired(t *testing.T) {
	secret := "test-secret"
	user := models.User{ID: 1, Email: "x@example.com", Role: models.RoleStudent}
	// negative TTL yields an already expired token
	token, err := GenerateToken(user, secret, -1)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := ParseToken(token, secret); err == nil {
		t.Error("ParseToken() should reject expired token")
	}
}
