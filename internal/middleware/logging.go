package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
)

// LoggingInterceptor logs and counts every unary call. Client mistakes
// (bad input, missing rows, denied access) are warnings; internal and
// unknown failures are errors. Install it after the auth interceptor so the
// caller is known.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			attrs := []any{
				"procedure", procedure,
				"user_id", GetUserID(ctx),
				"request_id", req.Header().Get(RequestIDHeader),
				"duration_ms", time.Since(start).Milliseconds(),
			}

			if err == nil {
				metrics.RecordRPC(procedure, "ok")
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			metrics.RecordRPC(procedure, code.String())
			attrs = append(attrs, "code", code, "error", err)
			slog.Log(ctx, levelForCode(code), "RPC failed", attrs...)
			return resp, err
		}
	}
}

func levelForCode(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
