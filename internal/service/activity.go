package service

import (
	"errors"
	"strings"
	"time"

	"classpulse/internal/models"

	"gorm.io/gorm"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// Active 判断活动当前是否处于开放窗口，两端均为闭区间。
// 每次读取都重新计算，不落库。
func Active(a models.Activity, now int64) bool {
	return now >= a.StartsAt && now <= a.EndsAt
}

// ActivityService 封装活动相关的业务逻辑。
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// ReactionDTO 是对外输出的单条反馈。
type ReactionDTO struct {
	Type string `json:"type"`
	Ts   int64  `json:"ts"`
}

// ActivityDTO 是对外输出的活动数据，active 为派生字段。
type ActivityDTO struct {
	models.Activity
	Active        bool         `json:"active"`
	FeedbackCount *int64       `json:"feedbackCount,omitempty"`
	MyReaction    *ReactionDTO `json:"myReaction,omitempty"`
}

// Create 创建新活动并分配唯一活动码。
func (s *ActivityService) Create(title, description string, startsAt, endsAt int64, professorID uint) (*ActivityDTO, error) {
	if endsAt <= startsAt {
		return nil, ErrInvalidWindow
	}
	code, err := allocateCode(func(code string) (bool, error) {
		var count int64
		if err := s.db.Model(&models.Activity{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	})
	if err != nil {
		return nil, err
	}
	act := models.Activity{
		Code:        code,
		Title:       title,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		CreatedAt:   nowMs(),
		ProfessorID: professorID,
	}
	if err := s.db.Create(&act).Error; err != nil {
		return nil, err
	}
	return &ActivityDTO{Activity: act, Active: Active(act, nowMs())}, nil
}

// Get 按活动码查询，码在存储与查找前统一转为大写。
func (s *ActivityService) Get(code string) (*ActivityDTO, error) {
	var act models.Activity
	err := s.db.First(&act, "code = ?", strings.ToUpper(code)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return &ActivityDTO{Activity: act, Active: Active(act, nowMs())}, nil
}

// ListForProfessor 返回该教授创建的活动，附带各活动收到的反馈数。
func (s *ActivityService) ListForProfessor(professorID uint) ([]ActivityDTO, error) {
	var acts []models.Activity
	if err := s.db.Where("professor_id = ?", professorID).Order("created_at desc").Find(&acts).Error; err != nil {
		return nil, err
	}
	now := nowMs()
	out := make([]ActivityDTO, 0, len(acts))
	for _, a := range acts {
		var count int64
		if err := s.db.Model(&models.Feedback{}).Where("code = ?", a.Code).Count(&count).Error; err != nil {
			return nil, err
		}
		out = append(out, ActivityDTO{Activity: a, Active: Active(a, now), FeedbackCount: &count})
	}
	return out, nil
}

// ListForStudent 返回该学生反馈过的活动，附带其本人的反馈。
func (s *ActivityService) ListForStudent(userID uint) ([]ActivityDTO, error) {
	var fbs []models.Feedback
	if err := s.db.Where("user_id = ?", userID).Order("ts desc").Find(&fbs).Error; err != nil {
		return nil, err
	}
	now := nowMs()
	out := make([]ActivityDTO, 0, len(fbs))
	for _, fb := range fbs {
		var act models.Activity
		if err := s.db.First(&act, "code = ?", fb.Code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, ActivityDTO{
			Activity:   act,
			Active:     Active(act, now),
			MyReaction: &ReactionDTO{Type: fb.Type, Ts: fb.Ts},
		})
	}
	return out, nil
}
