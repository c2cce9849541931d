package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/awantoch/flowbridge/constants"
)

// Internal logs are structured zap output on stderr. User output is plain
// text on stdout so command results can be piped.
var (
	loggerLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu       sync.RWMutex
	internal *zap.SugaredLogger
	userOut  io.Writer = os.Stdout
)

type requestIDKey struct{}

func init() {
	if os.Getenv(constants.EnvDebug) != "" {
		loggerLevel.SetLevel(zapcore.DebugLevel)
	}
	internal = newLogger(os.Stderr, true)
}

func newLogger(w io.Writer, color bool) *zap.SugaredLogger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), loggerLevel)
	return zap.New(core).Sugar()
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return internal
}

// User prints one line of user-facing output.
func User(format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintln(userOut, fmt.Sprintf(format, v...))
}

func Info(format string, v ...any) { logger().Infof(format, v...) }
func Warn(format string, v ...any) { logger().Warnf(format, v...) }
func Error(format string, v ...any) { logger().Errorf(format, v...) }
func Debug(format string, v ...any) { logger().Debugf(format, v...) }

// Errorf logs the formatted error and returns it.
func Errorf(format string, v ...any) error {
	err := fmt.Errorf(format, v...)
	logger().Error(err.Error())
	return err
}

// SetUserOutput redirects User; nil restores stdout.
func SetUserOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	userOut = w
	mu.Unlock()
}

// SetInternalOutput redirects internal logs without colors; nil restores
// stderr.
func SetInternalOutput(w io.Writer) {
	l := newLogger(os.Stderr, true)
	if w != nil {
		l = newLogger(w, false)
	}
	mu.Lock()
	internal = l
	mu.Unlock()
}

// SetDebug switches internal logs between debug and info level.
func SetDebug(on bool) {
	if on {
		loggerLevel.SetLevel(zapcore.DebugLevel)
		return
	}
	loggerLevel.SetLevel(zapcore.InfoLevel)
}

// SetLevel sets the minimum level of internal logs: debug, info, warn or
// error.
func SetLevel(level string) error {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	loggerLevel.SetLevel(l)
	return nil
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, reqID)
}

// EnsureRequestID keeps an existing request id or attaches a new one.
func EnsureRequestID(ctx context.Context) context.Context {
	if _, ok := RequestIDFromContext(ctx); ok {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// ctxFields appends the request id carried by ctx to the key-value pairs.
func ctxFields(ctx context.Context, fields []any) []any {
	if id, ok := RequestIDFromContext(ctx); ok {
		return append(fields, "request_id", id)
	}
	return fields
}

func InfoCtx(ctx context.Context, msg string, fields ...any) {
	logger().Infow(msg, ctxFields(ctx, fields)...)
}

func WarnCtx(ctx context.Context, msg string, fields ...any) {
	logger().Warnw(msg, ctxFields(ctx, fields)...)
}

func ErrorCtx(ctx context.Context, msg string, fields ...any) {
	logger().Errorw(msg, ctxFields(ctx, fields)...)
}

func DebugCtx(ctx context.Context, msg string, fields ...any) {
	logger().Debugw(msg, ctxFields(ctx, fields)...)
}
