package util

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	constants "github.com/CodeAndHammer/slovicka/internal/constants"
)

// logger reports warnings and fatal errors to stderr until InitLogger
// replaces it, so failures during startup are never silent.
var logger = defaultLogger()

func defaultLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewExample().Sugar()
	}
	return l.Sugar()
}

// InitLogger installs the process logger. Development mode gets the
// human-readable console encoder.
func InitLogger(production bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if production {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	logger = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	return nil
}

func SyncLogger() {
	_ = logger.Sync()
}

func LogInfo(format string, v ...any) {
	logger.Infof(format, v...)
}

func LogWarn(format string, v ...any) {
	logger.Warnf(format, v...)
}

func LogFatal(format string, v ...any) {
	logger.Fatalf(format, v...)
}

// LogInfoCtx prefixes the message with the request id carried by ctx, if any.
func LogInfoCtx(ctx context.Context, format string, v ...any) {
	logger.Infof(requestPrefix(ctx)+format, v...)
}

func LogWarnCtx(ctx context.Context, format string, v ...any) {
	logger.Warnf(requestPrefix(ctx)+format, v...)
}

func requestPrefix(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if reqID, _ := ctx.Value(constants.RequestIDKey).(string); reqID != "" {
		return fmt.Sprintf("[request_id=%v] ", reqID)
	}
	return ""
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			LogWarn("Error checking file existence: %v", err)
		}
		return false
	}
	return !info.IsDir()
}

func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour%s, %d minute%s, %d second%s",
			hours, plural(hours),
			minutes, plural(minutes),
			seconds, plural(seconds))
	case minutes > 0:
		return fmt.Sprintf("%d minute%s, %d second%s",
			minutes, plural(minutes),
			seconds, plural(seconds))
	default:
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
