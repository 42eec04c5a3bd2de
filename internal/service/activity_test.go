package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"classpulse/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps the in-memory database alive
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(&models.User{}, &models.Activity{}, &models.Feedback{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestActive(t *testing.T) {
	a := models.Activity{StartsAt: 1000, EndsAt: 2000}

	tests := []struct {
		name string
		now  int64
		want bool
	}{
		{"before window", 999, false},
		{"at start boundary", 1000, true},
		{"inside window", 1500, true},
		{"at end boundary", 2000, true},
		{"after window", 2001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Active(a, tt.now); got != tt.want {
				t.Errorf("Active(now=%d) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestActivityService_Create(t *testing.T) {
	svc := NewActivityService(newTestDB(t))
	now := time.Now().UnixMilli()

	act, err := svc.Create("Lecture 1", "intro", now-1000, now+3600000, 7)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(act.Code) != codeLength {
		t.Errorf("Create() code length = %d, want %d", len(act.Code), codeLength)
	}
	if !act.Active {
		t.Error("Create() activity inside window should be active")
	}
	if act.ProfessorID != 7 {
		t.Errorf("Create() professor id = %d, want 7", act.ProfessorID)
	}
	if act.CreatedAt == 0 {
		t.Error("Create() createdAt not set")
	}
}

func TestActivityService_Create_InvalidWindow(t *testing.T) {
	svc := NewActivityService(newTestDB(t))

	tests := []struct {
		name     string
		startsAt int64
		endsAt   int64
	}{
		{"ends before start", 2000, 1000},
		{"ends equals start", 2000, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create("t", "d", tt.startsAt, tt.endsAt, 1)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("Create() error = %v, want ErrInvalidWindow", err)
			}
		})
	}
}

func TestActivityService_Create_UniqueCodes(t *testing.T) {
	svc := NewActivityService(newTestDB(t))
	now := time.Now().UnixMilli()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		act, err := svc.Create("t", "d", now, now+1000, 1)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[act.Code] {
			t.Fatalf("Create() returned duplicate code %q", act.Code)
		}
		seen[act.Code] = true
	}
}

func TestActivityService_Get_CaseInsensitive(t *testing.T) {
	svc := NewActivityService(newTestDB(t))
	now := time.Now().UnixMilli()

	created, err := svc.Create("t", "d", now, now+1000, 1)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Get(strings.ToLower(created.Code))
	if err != nil {
		t.Fatalf("Get(lowercase) error = %v", err)
	}
	if got.Code != created.Code {
		t.Errorf("Get(lowercase) code = %q, want %q", got.Code, created.Code)
	}
}

func TestActivityService_Get_NotFound(t *testing.T) {
	svc := NewActivityService(newTestDB(t))

	for _, code := range []string{"abc123", "ABC123"} {
		if _, err := svc.Get(code); !errors.Is(err, ErrActivityNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrActivityNotFound", code, err)
		}
	}
}

func TestActivityService_ListForProfessor(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewActivityService(gdb)
	now := time.Now().UnixMilli()

	mine, err := svc.Create("mine", "d", now, now+1000, 1)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create("other", "d", now, now+1000, 2); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i, uid := range []uint{10, 11, 12} {
		fb := models.Feedback{Code: mine.Code, Type: "happy", Ts: now + int64(i), UserID: uid}
		if err := gdb.Create(&fb).Error; err != nil {
			t.Fatalf("seed feedback: %v", err)
		}
	}

	acts, err := svc.ListForProfessor(1)
	if err != nil {
		t.Fatalf("ListForProfessor() error = %v", err)
	}
	if len(acts) != 1 {
		t.Fatalf("ListForProfessor() returned %d activities, want 1", len(acts))
	}
	if acts[0].Code != mine.Code {
		t.Errorf("ListForProfessor() code = %q, want %q", acts[0].Code, mine.Code)
	}
	if acts[0].FeedbackCount == nil || *acts[0].FeedbackCount != 3 {
		t.Errorf("ListForProfessor() feedbackCount = %v, want 3", acts[0].FeedbackCount)
	}
}

func TestActivityService_ListForStudent(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewActivityService(gdb)
	now := time.Now().UnixMilli()

	reacted, err := svc.Create("reacted", "d", now, now+1000, 1)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create("ignored", "d", now, now+1000, 1); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fb := models.Feedback{Code: reacted.Code, Type: "confused", Ts: now, UserID: 5}
	if err := gdb.Create(&fb).Error; err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	acts, err := svc.ListForStudent(5)
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	if len(acts) != 1 {
		t.Fatalf("ListForStudent() returned %d activities, want 1", len(acts))
	}
	if acts[0].Code != reacted.Code {
		t.Errorf("ListForStudent() code = %q, want %q", acts[0].Code, reacted.Code)
	}
	if acts[0].MyReaction == nil || acts[0].MyReaction.Type != "confused" {
		t.Errorf("ListForStudent() myReaction = %+v, want confused", acts[0].MyReaction)
	}
}
