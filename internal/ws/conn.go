package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"classpulse/internal/auth"
	"classpulse/internal/config"
	"classpulse/internal/metrics"
	"classpulse/internal/models"
	"classpulse/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client 是一条 WebSocket 连接。一条连接可以先后加入多个活动的
// 广播组，rooms 只在 readPump 这个 goroutine 里修改。
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	actSvc    *service.ActivityService
	fbSvc     *service.FeedbackService
	userID    uint
	role      string
	rooms     map[string]*RoomHub
	closeOnce sync.Once
}

// closeSend 关闭发送通道，通知 writePump 退出。必须先从所有
// 广播组退出后再调用，否则广播循环可能写到已关闭的通道。
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundEvent struct {
	Event string `json:"event"`
	Code  string `json:"code"`
	Type  string `json:"type"`
}

type joinedEvent struct {
	Event string `json:"event"`
	Code  string `json:"code"`
	Role  string `json:"role"`
}

type reactionEvent struct {
	Event string `json:"event"`
	Code  string `json:"code"`
	Type  string `json:"type"`
	Ts    int64  `json:"ts"`
}

type errorEvent struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// Serve 升级 WebSocket 连接。令牌通过 token 查询参数或 Authorization
// 头在建连时一次性提供；缺失或无效不拒绝连接，而是降级为匿名学生
// 身份（可旁观，提交反馈会被拒绝）。
func Serve(h *Hub, actSvc *service.ActivityService, fbSvc *service.FeedbackService, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := uint(0)
		role := models.RoleStudent
		token := c.Query("token")
		if token == "" {
			authz := c.GetHeader("Authorization")
			if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
				token = authz[7:]
			}
		}
		if token != "" {
			if claims, err := auth.ParseToken(token, cfg.JWTSecret); err == nil {
				userID = claims.UserID
				role = claims.Role
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{
			hub:    h,
			conn:   conn,
			send:   make(chan []byte, 256),
			actSvc: actSvc,
			fbSvc:  fbSvc,
			userID: userID,
			role:   role,
			rooms:  make(map[string]*RoomHub),
		}
		metrics.WsConnections.Inc()

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		for _, rh := range c.rooms {
			rh.unregister <- c
		}
		c.closeSend()
		metrics.WsConnections.Dec()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4 << 10)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in inboundEvent
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		switch in.Event {
		case "joinActivity":
			c.handleJoin(strings.ToUpper(in.Code))
		case "sendReaction":
			c.handleReaction(strings.ToUpper(in.Code), in.Type)
		}
	}
}

// handleJoin 把连接加入活动的广播组。学生只能在活动窗口内加入，
// 教授可随时旁观。
func (c *Client) handleJoin(code string) {
	act, err := c.actSvc.Get(code)
	if err != nil {
		if errors.Is(err, service.ErrActivityNotFound) {
			c.sendError(service.ErrActivityNotFound.Error())
			return
		}
		log.Error().Err(err).Str("code", code).Msg("ws join lookup")
		c.sendError("failed to join activity")
		return
	}
	if c.role != models.RoleProfessor && !act.Active {
		c.sendError(service.ErrActivityNotActive.Error())
		return
	}
	if _, joined := c.rooms[code]; !joined {
		rh := c.hub.GetRoom(code)
		rh.register <- c
		c.rooms[code] = rh
	}
	c.sendJSON(joinedEvent{Event: "joined", Code: code, Role: c.role})
}

// handleReaction 提交反馈并广播给活动的所有订阅者（含发送者本人）。
// 任何拒绝只回给发送者，不产生广播。
func (c *Client) handleReaction(code, rtype string) {
	if c.role != models.RoleStudent {
		c.sendError(service.ErrForbidden.Error())
		return
	}
	fb, err := c.fbSvc.Submit(code, rtype, c.userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrActivityNotFound),
			errors.Is(err, service.ErrActivityNotActive),
			errors.Is(err, service.ErrInvalidReaction),
			errors.Is(err, service.ErrAlreadyReacted):
			c.sendError(err.Error())
		default:
			log.Error().Err(err).Str("code", code).Uint("user_id", c.userID).Msg("ws submit reaction")
			c.sendError("failed to submit reaction")
		}
		return
	}
	metrics.ReactionsTotal.Inc()
	b, err := json.Marshal(reactionEvent{Event: "newReaction", Code: fb.Code, Type: fb.Type, Ts: fb.Ts})
	if err != nil {
		return
	}
	c.hub.GetRoom(code).broadcast <- b
}

func (c *Client) sendError(msg string) {
	c.sendJSON(errorEvent{Event: "errorMessage", Error: msg})
}

func (c *Client) sendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
