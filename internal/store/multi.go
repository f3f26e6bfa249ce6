package store

import (
	"context"
	"errors"

	"github.com/jarvisbot/jarvis-gateway/internal/model"
)

// Recorder 问答记录器
type Recorder interface {
	Record(ctx context.Context, exchange model.Exchange) error
}

// Multi 依次调用所有记录器，一个失败不影响其他
type Multi []Recorder

// Record 返回所有失败的合并错误
func (m Multi) Record(ctx context.Context, exchange model.Exchange) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, exchange); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
