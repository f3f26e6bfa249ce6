package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jarvisbot/jarvis-gateway/internal/middleware"
	"github.com/jarvisbot/jarvis-gateway/internal/model"
	"go.uber.org/zap"
)

const (
	wsWriteWait   = 10 * time.Second
	wsMaxFrameLen = 64 << 10
)

// WebSocketHandler WebSocket 聊天处理器，每条消息走一次完整的网关流程
type WebSocketHandler struct {
	gateway  ChatService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器，Origin 按 CORS 白名单检查
func NewWebSocketHandler(gateway ChatService, allowOrigins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非浏览器客户端不带 Origin
				return origin == "" || middleware.OriginAllowed(allowOrigins, origin)
			},
		},
		logger: logger,
	}
}

// HandleWebSocket WebSocket 连接入口
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	key := c.GetHeader(APIKeyHeader)
	if key == "" {
		key = c.Query("key")
	}

	// 升级前完成认证
	if err := h.gateway.Authenticate(key); err != nil {
		status, body := ErrorResponse(err)
		c.JSON(status, body)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxFrameLen)

	connID := middleware.GetRequestID(c)
	h.logger.Info("WebSocket 连接建立", zap.String("connId", connID))

	// 消息循环
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket 读取错误", zap.String("connId", connID), zap.Error(err))
			}
			break
		}

		var reply interface{}
		var msg model.ChatRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			// 格式错误只回错误帧，连接保持
			h.logger.Info("WebSocket 消息格式错误", zap.String("connId", connID), zap.Error(err))
			reply = model.ErrorResponse{Error: CodeBadRequest, Message: "invalid request"}
		} else {
			reply = h.handleMessage(c, key, msg)
		}

		if err := h.write(conn, reply); err != nil {
			h.logger.Warn("WebSocket 写入失败", zap.String("connId", connID), zap.Error(err))
			break
		}
	}

	h.logger.Info("WebSocket 连接断开", zap.String("connId", connID))
}

// handleMessage 处理一条消息，返回响应或错误体
func (h *WebSocketHandler) handleMessage(c *gin.Context, key string, msg model.ChatRequest) interface{} {
	resp, err := h.gateway.Chat(c.Request.Context(), key, msg.Text)
	if err != nil {
		_, body := ErrorResponse(err)
		h.logger.Info("WebSocket 消息处理失败",
			zap.String("connId", middleware.GetRequestID(c)),
			zap.String("code", body.Error),
			zap.Error(err))
		return body
	}
	return resp
}

func (h *WebSocketHandler) write(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
