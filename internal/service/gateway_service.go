package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jarvisbot/jarvis-gateway/internal/model"
	"github.com/jarvisbot/jarvis-gateway/internal/prompt"
	"go.uber.org/zap"
)

// JSTLayout 响应中的时间格式
const JSTLayout = "2006-01-02 15:04:05 JST"

// JST 固定 UTC+9，不依赖系统时区数据
var JST = time.FixedZone("JST", 9*60*60)

// recordTimeout 记录问答的最长耗时
const recordTimeout = 5 * time.Second

// Upstream 上游聊天服务
type Upstream interface {
	Chat(ctx context.Context, apiKey, text string) (string, error)
}

// ExchangeRecorder 问答记录器
type ExchangeRecorder interface {
	Record(ctx context.Context, exchange model.Exchange) error
}

// GatewayService 网关服务，每次调用相互独立
type GatewayService struct {
	keys     *KeyResolver
	composer *prompt.Composer
	upstream Upstream
	recorder ExchangeRecorder
	now      func() time.Time
	logger   *zap.Logger

	// pending 后台记录中的问答
	pending sync.WaitGroup
}

// Option 可选配置
type Option func(*GatewayService)

// WithRecorder 成功后记录问答
func WithRecorder(recorder ExchangeRecorder) Option {
	return func(s *GatewayService) {
		s.recorder = recorder
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(s *GatewayService) {
		s.now = now
	}
}

// NewGatewayService 创建网关服务
func NewGatewayService(keys *KeyResolver, composer *prompt.Composer, upstream Upstream, logger *zap.Logger, opts ...Option) *GatewayService {
	s := &GatewayService{
		keys:     keys,
		composer: composer,
		upstream: upstream,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate 入站认证
func (s *GatewayService) Authenticate(inboundKey string) error {
	return s.keys.Authenticate(inboundKey)
}

// Chat 认证 -> 校验 -> 拼接前言 -> 选择 key -> 调用上游 -> 构造响应
func (s *GatewayService) Chat(ctx context.Context, inboundKey, text string) (*model.ChatResponse, error) {
	if err := s.keys.Authenticate(inboundKey); err != nil {
		return nil, err
	}

	userText := strings.TrimSpace(text)
	if userText == "" {
		return nil, ErrEmptyText
	}

	mode, upstreamText := s.composer.Compose(userText)

	upstreamKey, err := s.keys.Resolve(inboundKey)
	if err != nil {
		return nil, err
	}

	requestID := RequestIDFromContext(ctx)
	s.logger.Info("转发聊天请求",
		zap.String("requestId", requestID),
		zap.String("mode", mode.String()),
		zap.Int("chars", len([]rune(userText))))

	reply, err := s.upstream.Chat(ctx, upstreamKey, upstreamText)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := &model.ChatResponse{
		Reply:   reply,
		JSTTime: now.In(JST).Format(JSTLayout),
	}

	s.record(ctx, model.Exchange{
		RequestID: requestID,
		Mode:      mode.String(),
		UserText:  userText,
		Reply:     reply,
		At:        now,
	})

	return resp, nil
}

// record 后台记录问答，不阻塞响应，失败只记日志
func (s *GatewayService) record(ctx context.Context, exchange model.Exchange) {
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		if err := s.recorder.Record(ctx, exchange); err != nil {
			s.logger.Warn("记录问答失败",
				zap.String("requestId", exchange.RequestID),
				zap.Error(err))
		}
	}()
}

// Wait 等待后台记录完成，关闭记录器之前调用
func (s *GatewayService) Wait() {
	s.pending.Wait()
}
