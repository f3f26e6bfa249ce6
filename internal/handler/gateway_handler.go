package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jarvisbot/jarvis-gateway/internal/client"
	"github.com/jarvisbot/jarvis-gateway/internal/middleware"
	"github.com/jarvisbot/jarvis-gateway/internal/model"
	"github.com/jarvisbot/jarvis-gateway/internal/service"
	"go.uber.org/zap"
)

// APIKeyHeader 入站 key 头部
const APIKeyHeader = "X-API-KEY"

// 错误码
const (
	CodeBadRequest          = "bad_request"
	CodeUnauthenticated     = "unauthenticated"
	CodeUpstreamUnreachable = "upstream_unreachable"
	CodeUpstreamAuth        = "upstream_unauthorized"
	CodeUpstreamError       = "upstream_error"
	CodeUpstreamEmptyReply  = "upstream_empty_reply"
	CodeInternal            = "internal_error"
)

// ChatService 网关服务
type ChatService interface {
	Authenticate(inboundKey string) error
	Chat(ctx context.Context, inboundKey, text string) (*model.ChatResponse, error)
}

// ServiceInfo 服务名和版本
type ServiceInfo struct {
	Name    string
	Version string
}

// GatewayHandler 网关 HTTP 处理器
type GatewayHandler struct {
	gateway ChatService
	info    ServiceInfo
	logger  *zap.Logger
}

// NewGatewayHandler 创建网关处理器
func NewGatewayHandler(gateway ChatService, info ServiceInfo, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{
		gateway: gateway,
		info:    info,
		logger:  logger,
	}
}

// Register 注册路由
func (h *GatewayHandler) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/version", h.Version)
	r.GET("/health", h.Health)
	r.HEAD("/health", h.HealthHead)
	r.POST("/chat", h.Chat)
}

// Chat 聊天接口
func (h *GatewayHandler) Chat(c *gin.Context) {
	key := c.GetHeader(APIKeyHeader)

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 认证优先于请求体校验
		if authErr := h.gateway.Authenticate(key); authErr != nil {
			h.fail(c, authErr)
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: CodeBadRequest, Message: "invalid request"})
		return
	}

	resp, err := h.gateway.Chat(c.Request.Context(), key, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Root 服务标识
func (h *GatewayHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": h.info.Name, "ok": true})
}

// Version 版本号
func (h *GatewayHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.info.Version})
}

// Health 健康检查
func (h *GatewayHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HealthHead 监控探针
func (h *GatewayHandler) HealthHead(c *gin.Context) {
	c.Status(http.StatusOK)
}

// fail 把错误转换为状态码，只在这里做映射
func (h *GatewayHandler) fail(c *gin.Context, err error) {
	status, body := ErrorResponse(err)

	fields := []zap.Field{
		zap.String("requestId", middleware.GetRequestID(c)),
		zap.Int("status", status),
		zap.String("code", body.Error),
		zap.Error(err),
	}
	switch {
	case client.IsUpstream(err):
		h.logger.Warn("上游调用失败", fields...)
	case status >= http.StatusInternalServerError:
		h.logger.Error("聊天请求失败", fields...)
	default:
		h.logger.Info("聊天请求被拒绝", fields...)
	}

	_ = c.Error(err)
	c.JSON(status, body)
}

// ErrorResponse 错误到状态码和响应体的映射，响应体不包含上游返回的内容
func ErrorResponse(err error) (int, model.ErrorResponse) {
	var (
		unreachable *client.UnreachableError
		authErr     *client.AuthError
		statusErr   *client.StatusError
	)

	switch {
	case errors.Is(err, service.ErrEmptyText):
		return http.StatusBadRequest, model.ErrorResponse{Error: CodeBadRequest, Message: "text is empty"}
	case errors.Is(err, service.ErrInvalidGatewayKey):
		return http.StatusUnauthorized, model.ErrorResponse{Error: CodeUnauthenticated, Message: "invalid gateway api key"}
	case errors.Is(err, service.ErrMissingUpstreamKey):
		return http.StatusUnauthorized, model.ErrorResponse{Error: CodeUnauthenticated, Message: "missing api key for upstream"}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, model.ErrorResponse{Error: CodeUnauthenticated, Message: "unauthenticated"}
	case errors.As(err, &unreachable):
		return http.StatusBadGateway, model.ErrorResponse{Error: CodeUpstreamUnreachable, Message: "upstream request failed"}
	case errors.As(err, &authErr):
		return http.StatusBadGateway, model.ErrorResponse{Error: CodeUpstreamAuth, Message: "upstream unauthorized (check api key)"}
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, model.ErrorResponse{Error: CodeUpstreamError, Message: upstreamErrorMessage(statusErr.StatusCode)}
	case errors.Is(err, client.ErrEmptyReply):
		return http.StatusBadGateway, model.ErrorResponse{Error: CodeUpstreamEmptyReply, Message: "upstream returned empty reply"}
	default:
		return http.StatusInternalServerError, model.ErrorResponse{Error: CodeInternal, Message: "internal error"}
	}
}

// upstreamErrorMessage 2xx 表示响应体无法解析
func upstreamErrorMessage(statusCode int) string {
	if statusCode >= 200 && statusCode <= 299 {
		return "invalid upstream response"
	}
	if text := http.StatusText(statusCode); text != "" {
		return "upstream error: " + text
	}
	return "upstream error"
}
