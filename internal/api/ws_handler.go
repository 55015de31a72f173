package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"careersite/internal/api/middleware"
	"careersite/internal/auth"
	"careersite/internal/tasks"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// NotificationSource 按招聘者订阅快照通知。返回的 channel 在 unsubscribe 或 ctx 结束后关闭。
type NotificationSource interface {
	Subscribe(ctx context.Context, recruiterID uint) (<-chan []byte, func(), error)
}

// RedisNotifications 通过 Redis Pub/Sub 订阅 worker 发布的快照结果。
type RedisNotifications struct {
	client redis.UniversalClient
}

// NewRedisNotifications 包装 Redis 客户端。
func NewRedisNotifications(client redis.UniversalClient) *RedisNotifications {
	return &RedisNotifications{client: client}
}

func (r *RedisNotifications) Subscribe(ctx context.Context, recruiterID uint) (<-chan []byte, func(), error) {
	channel := tasks.NotifyChannel(recruiterID)
	pubsub := r.client.Subscribe(ctx, channel)
	// 等待订阅确认，确保 Redis 不可用时立即失败
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %q: %w", channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { _ = pubsub.Close() }, nil
}

// WsHandler 把快照完成通知推送到编辑器。
// 连接建立后客户端须在 wsAuthTimeout 内发送 {"type":"auth","token":"<access token>"}。
type WsHandler struct {
	tokens   middleware.TokenValidator
	source   NotificationSource
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时只允许同源。
func NewWsHandler(tokens middleware.TokenValidator, source NotificationSource, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	return &WsHandler{
		tokens: tokens,
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		for _, a := range allowed {
			if strings.EqualFold(origin, a) {
				return true
			}
		}
		return false
	}
}

type wsClientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type wsServerMessage struct {
	Type        string `json:"type"`
	RecruiterID uint   `json:"recruiter_id,omitempty"`
}

// HandleConnection 完成鉴权后转发通知，所有写操作都在本 goroutine 内完成。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger).With(slog.String("client_ip", c.ClientIP()))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	recruiterID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		closeWith(conn, websocket.ClosePolicyViolation, "unauthorized")
		return
	}
	log = log.With(slog.Uint64("recruiter_id", uint64(recruiterID)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	notes, unsubscribe, err := h.source.Subscribe(ctx, recruiterID)
	if err != nil {
		log.Error("subscribe notifications failed", slog.Any("error", err))
		closeWith(conn, websocket.CloseInternalServerErr, "notifications unavailable")
		return
	}
	defer unsubscribe()

	if err := writeJSON(conn, wsServerMessage{Type: "ready", RecruiterID: recruiterID}); err != nil {
		log.Warn("write ready message failed", slog.Any("error", err))
		return
	}
	log.Info("websocket authenticated")

	pings := make(chan struct{}, 1)
	go readLoop(conn, pings, cancel)

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("websocket connection closed")
			return
		case payload, ok := <-notes:
			if !ok {
				closeWith(conn, websocket.CloseGoingAway, "notifications closed")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Info("forward notification failed", slog.Any("error", err))
				return
			}
		case <-pings:
			if err := writeJSON(conn, wsServerMessage{Type: "pong"}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				log.Info("write ping failed", slog.Any("error", err))
				return
			}
		}
	}
}

func (h *WsHandler) authenticate(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	var msg wsClientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return 0, fmt.Errorf("read auth message: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		return 0, errors.New("first message must carry an access token")
	}
	claims, err := h.tokens.ValidateToken(msg.Token, auth.TokenTypeAccess)
	if err != nil {
		return 0, fmt.Errorf("validate token: %w", err)
	}
	return claims.RecruiterID, nil
}

// readLoop 只负责读：客户端 ping 交给写循环回复 pong，读错误即断开。
func readLoop(conn *websocket.Conn, pings chan<- struct{}, cancel context.CancelFunc) {
	defer cancel()

	extend := func() { _ = conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval)) }
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		extend()
		if msg.Type == "ping" {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
