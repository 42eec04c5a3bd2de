package service

import (
	"errors"
	"strings"

	"classpulse/internal/models"

	"gorm.io/gorm"
)

// 反馈只允许四种固定表情类别。
var allowedReactions = map[string]bool{
	"happy":     true,
	"sad":       true,
	"surprised": true,
	"confused":  true,
}

// FeedbackService 封装反馈提交与查询的业务逻辑。
type FeedbackService struct {
	db *gorm.DB
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db}
}

// SummaryDTO 是学生本人反馈汇总的单行。
type SummaryDTO struct {
	Code string `json:"code"`
	Type string `json:"type"`
	Ts   int64  `json:"ts"`
}

// Submit 校验并持久化一条学生反馈。重复提交落在 (code, user_id)
// 唯一索引上，转译为 ErrAlreadyReacted 而不是服务端错误。
func (s *FeedbackService) Submit(code, rtype string, userID uint) (*models.Feedback, error) {
	if userID == 0 {
		return nil, ErrInvalidCredentials
	}
	code = strings.ToUpper(code)
	var act models.Activity
	if err := s.db.First(&act, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if !Active(act, nowMs()) {
		return nil, ErrActivityNotActive
	}
	if !allowedReactions[rtype] {
		return nil, ErrInvalidReaction
	}
	fb := models.Feedback{Code: code, Type: rtype, Ts: nowMs(), UserID: userID}
	if err := s.db.Create(&fb).Error; err != nil {
		if isDuplicateErr(err) {
			return nil, ErrAlreadyReacted
		}
		return nil, err
	}
	return &fb, nil
}

// ListByActivity 返回指定活动的全部反馈，按时间升序。
func (s *FeedbackService) ListByActivity(code string) ([]ReactionDTO, error) {
	return s.list(s.db.Where("code = ?", strings.ToUpper(code)))
}

// ListByActivityForUser 只返回指定学生在该活动下的反馈。
func (s *FeedbackService) ListByActivityForUser(code string, userID uint) ([]ReactionDTO, error) {
	return s.list(s.db.Where("code = ? AND user_id = ?", strings.ToUpper(code), userID))
}

func (s *FeedbackService) list(q *gorm.DB) ([]ReactionDTO, error) {
	var fbs []models.Feedback
	if err := q.Order("ts asc").Find(&fbs).Error; err != nil {
		return nil, err
	}
	out := make([]ReactionDTO, 0, len(fbs))
	for _, fb := range fbs {
		out = append(out, ReactionDTO{Type: fb.Type, Ts: fb.Ts})
	}
	return out, nil
}

// MySummary 返回学生反馈过的每个活动一行：活动码、类别、时间。
func (s *FeedbackService) MySummary(userID uint) ([]SummaryDTO, error) {
	var fbs []models.Feedback
	if err := s.db.Where("user_id = ?", userID).Order("ts desc").Find(&fbs).Error; err != nil {
		return nil, err
	}
	out := make([]SummaryDTO, 0, len(fbs))
	for _, fb := range fbs {
		out = append(out, SummaryDTO{Code: fb.Code, Type: fb.Type, Ts: fb.Ts})
	}
	return out, nil
}

// isDuplicateErr 识别唯一约束冲突，兼容 Postgres (SQLSTATE 23505) 与
// 测试用的 SQLite。
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
