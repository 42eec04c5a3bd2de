package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"classpulse/internal/auth"
	"classpulse/internal/config"
	"classpulse/internal/metrics"
	"classpulse/internal/mw"
	"classpulse/internal/service"
	"classpulse/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, gdb *gorm.DB, hub *ws.Hub) *gin.Engine {
	userSvc := service.NewUserService(gdb, cfg)
	actSvc := service.NewActivityService(gdb)
	fbSvc := service.NewFeedbackService(gdb)
	quoteSvc := service.NewQuoteService(cfg.QuoteURL)
	h := NewHandler(userSvc, actSvc, fbSvc, quoteSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 控制单个 IP+路由的速率，避免课堂场景被刷爆。
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/activities/:code", h.GetActivity)
	api.GET("/external/quote", h.Quote)

	// 需要 Bearer Token 的业务接口。
	authed := api.Group("")
	authed.Use(auth.Middleware(cfg))

	authed.POST("/activities", h.CreateActivity)
	authed.GET("/activities", h.ListActivities)
	authed.GET("/feedback/:code", h.ListFeedback)
	authed.GET("/feedback/:code/summary", h.MyFeedbackSummary)

	r.GET("/ws", ws.Serve(hub, actSvc, fbSvc, cfg))

	// 前端静态资源走 NoRoute 兜底，避免根路径通配与 API 路由冲突。
	webDir := "./web"
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		rel := strings.TrimPrefix(filepath.Clean(c.Request.URL.Path), "/")
		target := filepath.Join(webDir, rel)
		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			c.File(target)
			return
		}
		index := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}
