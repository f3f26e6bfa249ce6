package service

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText 去掉空白后文本为空
	ErrEmptyText = errors.New("text is empty")

	// ErrUnauthenticated 网关层认证失败，与上游 401 区分
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidGatewayKey 入站 key 缺失或不匹配
	ErrInvalidGatewayKey = fmt.Errorf("%w: invalid gateway api key", ErrUnauthenticated)

	// ErrMissingUpstreamKey 没有可转发给上游的 key
	ErrMissingUpstreamKey = fmt.Errorf("%w: missing api key for upstream", ErrUnauthenticated)
)
