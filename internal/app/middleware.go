package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"tgmarkup/internal/transport"
	logx "tgmarkup/pkg/logx"
)

type UpdateFunc func(ctx context.Context, up transport.Update) error

type Middleware func(next UpdateFunc) UpdateFunc

// Chain wraps h so that m[0] runs first.
func Chain(h UpdateFunc, m ...Middleware) UpdateFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	return func(next UpdateFunc) UpdateFunc {
		return func(ctx context.Context, up transport.Update) error {
			if d <= 0 {
				return next(ctx, up)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, up)
		}
	}
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next UpdateFunc) UpdateFunc {
		return func(ctx context.Context, up transport.Update) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, up)
		}
	}
}

// MWRequestLog logs slow updates at info and the rest at debug.
func MWRequestLog(log logx.Logger) Middleware {
	return func(next UpdateFunc) UpdateFunc {
		return func(ctx context.Context, up transport.Update) error {
			start := time.Now()
			err := next(ctx, up)
			d := time.Since(start)

			fields := []logx.Field{logx.String("kind", string(up.Kind)), logx.Duration("dur", d)}
			switch {
			case up.Message != nil:
				fields = append(fields, logx.Int64("chat_id", up.Message.ChatID), logx.Int64("from_id", up.Message.FromID))
			case up.Callback != nil:
				fields = append(fields, logx.Int64("chat_id", up.Callback.ChatID), logx.Int64("from_id", up.Callback.FromID))
			}
			switch {
			case err != nil:
				// DispatchLoop reports the error itself.
			case d >= 750*time.Millisecond:
				log.Info("update ok", fields...)
			default:
				log.Debug("update ok", fields...)
			}
			return err
		}
	}
}
