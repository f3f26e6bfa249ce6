package service

import "crypto/subtle"

// KeyResolver 入站认证与上游 key 选择
type KeyResolver struct {
	gatewayKey  string
	upstreamKey string
}

// NewKeyResolver 两个 key 都可以为空
func NewKeyResolver(gatewayKey, upstreamKey string) *KeyResolver {
	return &KeyResolver{
		gatewayKey:  gatewayKey,
		upstreamKey: upstreamKey,
	}
}

// Authenticate 配置了网关 key 时校验入站 key，否则直接通过
func (r *KeyResolver) Authenticate(inbound string) error {
	if r.gatewayKey == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(inbound), []byte(r.gatewayKey)) != 1 {
		return ErrInvalidGatewayKey
	}
	return nil
}

// Resolve 优先使用配置的上游 key，否则透传入站 key
func (r *KeyResolver) Resolve(inbound string) (string, error) {
	if r.upstreamKey != "" {
		return r.upstreamKey, nil
	}
	if inbound == "" {
		return "", ErrMissingUpstreamKey
	}
	return inbound, nil
}
