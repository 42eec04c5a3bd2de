package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"classpulse/internal/auth"
	"classpulse/internal/models"
	"classpulse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	userSvc  *service.UserService
	actSvc   *service.ActivityService
	fbSvc    *service.FeedbackService
	quoteSvc *service.QuoteService
}

func NewHandler(userSvc *service.UserService, actSvc *service.ActivityService, fbSvc *service.FeedbackService, quoteSvc *service.QuoteService) *Handler {
	return &Handler{userSvc: userSvc, actSvc: actSvc, fbSvc: fbSvc, quoteSvc: quoteSvc}
}

// Register 处理用户注册请求，角色只接受 student/professor。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields"})
		return
	}
	if !strings.Contains(req.Email, "@") || len(req.Email) > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	if req.Role != models.RoleStudent && req.Role != models.RoleProfessor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	result, err := h.userSvc.Register(req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": service.ErrEmailTaken.Error()})
			return
		}
		log.Error().Err(err).Str("email", req.Email).Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Login 处理登录请求。账号不存在与密码错误的响应完全一致。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields"})
		return
	}
	result, err := h.userSvc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		log.Error().Err(err).Str("email", req.Email).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseMs 接受 JSON 数字或数字字符串形式的毫秒时间戳。
func parseMs(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// CreateActivity 创建活动，仅教授可用。
func (h *Handler) CreateActivity(c *gin.Context) {
	if auth.GetRole(c) != models.RoleProfessor {
		c.JSON(http.StatusForbidden, gin.H{"error": "professor role required"})
		return
	}
	var req struct {
		Title       string      `json:"title"`
		Description string      `json:"description"`
		StartsAt    interface{} `json:"startsAt"`
		EndsAt      interface{} `json:"endsAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" || req.StartsAt == nil || req.EndsAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields: title, description, startsAt, endsAt"})
		return
	}
	startsAt, ok1 := parseMs(req.StartsAt)
	endsAt, ok2 := parseMs(req.EndsAt)
	if !ok1 || !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidWindow.Error()})
		return
	}
	act, err := h.actSvc.Create(req.Title, req.Description, startsAt, endsAt, auth.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidWindow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidWindow.Error()})
			return
		}
		log.Error().Err(err).Uint("professor_id", auth.GetUserID(c)).Msg("create activity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create activity"})
		return
	}
	c.JSON(http.StatusCreated, act)
}

// ListActivities 按角色返回可见的活动：教授看自己创建的，
// 学生看自己反馈过的。
func (h *Handler) ListActivities(c *gin.Context) {
	var (
		acts []service.ActivityDTO
		err  error
	)
	if auth.GetRole(c) == models.RoleProfessor {
		acts, err = h.actSvc.ListForProfessor(auth.GetUserID(c))
	} else {
		acts, err = h.actSvc.ListForStudent(auth.GetUserID(c))
	}
	if err != nil {
		log.Error().Err(err).Uint("user_id", auth.GetUserID(c)).Msg("list activities")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list activities"})
		return
	}
	c.JSON(http.StatusOK, acts)
}

// GetActivity 按活动码查询单个活动，大小写不敏感。
func (h *Handler) GetActivity(c *gin.Context) {
	act, err := h.actSvc.Get(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrActivityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": service.ErrActivityNotFound.Error()})
			return
		}
		log.Error().Err(err).Str("code", c.Param("code")).Msg("get activity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read activity"})
		return
	}
	c.JSON(http.StatusOK, act)
}

// ListFeedback 返回活动的反馈历史：教授只能看自己活动的全部反馈，
// 学生只能看自己提交的那条。
func (h *Handler) ListFeedback(c *gin.Context) {
	act, err := h.actSvc.Get(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrActivityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": service.ErrActivityNotFound.Error()})
			return
		}
		log.Error().Err(err).Str("code", c.Param("code")).Msg("get activity for feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read feedback"})
		return
	}
	var items []service.ReactionDTO
	if auth.GetRole(c) == models.RoleProfessor {
		if act.ProfessorID != auth.GetUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
			return
		}
		items, err = h.fbSvc.ListByActivity(act.Code)
	} else {
		items, err = h.fbSvc.ListByActivityForUser(act.Code, auth.GetUserID(c))
	}
	if err != nil {
		log.Error().Err(err).Str("code", act.Code).Msg("list feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read feedback"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// MyFeedbackSummary 返回学生本人的反馈汇总。挂在 /feedback/:code/summary
// 下以绕开 gin 路由树的通配冲突，只有 :code 为 mine 时才命中。
func (h *Handler) MyFeedbackSummary(c *gin.Context) {
	if c.Param("code") != "mine" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if auth.GetRole(c) != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "student role required"})
		return
	}
	items, err := h.fbSvc.MySummary(auth.GetUserID(c))
	if err != nil {
		log.Error().Err(err).Uint("user_id", auth.GetUserID(c)).Msg("feedback summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read feedback"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// Quote 代理外部名言服务，上游失败一律 502。
func (h *Handler) Quote(c *gin.Context) {
	q, err := h.quoteSvc.Get()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": service.ErrUpstream.Error()})
		return
	}
	c.JSON(http.StatusOK, q)
}
