package models

// 时间字段统一使用毫秒时间戳，与前端的 Date.now() 对齐。

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;size:200;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"size:20;not null" json:"role"`
}

type Activity struct {
	Code        string `gorm:"primaryKey;size:16" json:"code"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:1000;not null" json:"description"`
	StartsAt    int64  `gorm:"not null" json:"startsAt"`
	EndsAt      int64  `gorm:"not null" json:"endsAt"`
	CreatedAt   int64  `gorm:"not null" json:"createdAt"`
	ProfessorID uint   `gorm:"index" json:"professorId"`
}

// Feedback 的 (code, user_id) 联合唯一索引保证每个学生对同一活动只能反馈一次，
// 并发重复提交由数据库约束兜底。
type Feedback struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Code   string `gorm:"size:16;not null;uniqueIndex:idx_feedback_code_user" json:"code"`
	Type   string `gorm:"size:20;not null" json:"type"`
	Ts     int64  `gorm:"not null" json:"ts"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_feedback_code_user" json:"userId"`
}

const (
	RoleStudent   = "student"
	RoleProfessor = "professor"
)
