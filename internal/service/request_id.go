package service

import "context"

type requestIDKey struct{}

// ContextWithRequestID 把请求 ID 放入 context
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext 取出请求 ID，没有时返回空串
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
