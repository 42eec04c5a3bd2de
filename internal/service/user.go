package service

import (
	"errors"

	"classpulse/internal/auth"
	"classpulse/internal/config"
	"classpulse/internal/models"

	"gorm.io/gorm"
)

// UserService 封装注册登录的业务逻辑。
type UserService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewUserService(db *gorm.DB, cfg config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

// AuthResult 注册或登录成功后返回的数据。
type AuthResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Register 注册新用户并直接签发令牌。
func (s *UserService) Register(email, password, role string) (*AuthResult, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{Email: email, PasswordHash: hash, Role: role}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(user, s.cfg.JWTSecret, s.cfg.TokenTTLDays)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Email: user.Email, Role: user.Role}, nil
}

// Login 校验邮箱密码并签发令牌。查无此人与密码错误返回同一个错误，
// 避免暴露账号是否存在。
func (s *UserService) Login(email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(user, s.cfg.JWTSecret, s.cfg.TokenTTLDays)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Email: user.Email, Role: user.Role}, nil
}
