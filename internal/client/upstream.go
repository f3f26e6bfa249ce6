package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// maxExcerptRunes 错误响应体保留的最大字符数
	maxExcerptRunes = 300
	// maxBodyBytes 读取响应体的上限
	maxBodyBytes = 1 << 20
)

// UpstreamClient 上游聊天服务客户端，只接受 {text}，返回 {reply}
type UpstreamClient struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUpstreamClient 创建上游客户端，timeout 限制单次调用的总耗时
func NewUpstreamClient(baseURL, chatPath string, timeout time.Duration, logger *zap.Logger) *UpstreamClient {
	return &UpstreamClient{
		url:        strings.TrimRight(baseURL, "/") + chatPath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UpstreamRequest 上游请求
type UpstreamRequest struct {
	Text string `json:"text"`
}

// UpstreamResponse 上游响应
type UpstreamResponse struct {
	Reply *string `json:"reply"`
}

// URL 上游完整地址
func (c *UpstreamClient) URL() string {
	return c.url
}

// Chat 转发一次请求，不重试
func (c *UpstreamClient) Chat(ctx context.Context, apiKey, text string) (string, error) {
	jsonData, err := json.Marshal(UpstreamRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("上游不可达",
			zap.String("url", c.url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", &UnreachableError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &UnreachableError{URL: c.url, Err: fmt.Errorf("读取响应失败: %w", err)}
	}

	c.logger.Debug("上游响应",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(body)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &StatusError{StatusCode: resp.StatusCode, Body: excerpt(body)}
	}

	var upResp UpstreamResponse
	if err := json.Unmarshal(body, &upResp); err != nil {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: excerpt(body)}
	}

	if upResp.Reply == nil || strings.TrimSpace(*upResp.Reply) == "" {
		return "", ErrEmptyReply
	}
	return *upResp.Reply, nil
}

// excerpt 截取响应体前 maxExcerptRunes 个字符
func excerpt(body []byte) string {
	s := strings.ToValidUTF8(string(body), "�")
	if utf8.RuneCountInString(s) <= maxExcerptRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxExcerptRunes])
}
