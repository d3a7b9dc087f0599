package log

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"marketplace/internal/domain"
)

var base = zap.NewNop()

// Init builds the process logger: JSON in production, console otherwise.
func Init(env, level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.Fields(zap.String("service", "marketplace")))
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process logger. Tests use it with an observer core.
func Set(l *zap.Logger) {
	base = l
	zap.ReplaceGlobals(l)
}

func L() *zap.Logger { return base }

func Sync() { _ = base.Sync() }

func requestFields(c *fiber.Ctx, action string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+6)
	out = append(out, zap.String("action", action))
	if c != nil {
		out = append(out,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			out = append(out, zap.String("req_id", rid))
		}
		if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
			out = append(out, zap.Int64("user_id", u.ID))
		}
	}
	if len(fields) > 0 {
		out = append(out, zap.Any("fields", fields))
	}
	return out
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	base.Info(action, requestFields(c, action, fields)...)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	base.Info(action, append(requestFields(c, action, fields), zap.Bool("audit", true))...)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	base.Warn(action, requestFields(c, action, fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	base.Error(action, append(requestFields(c, action, fields), zap.Error(err))...)
}

// AccessLog logs every request with its final status and latency.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		base.Info("http.request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.Any("req_id", c.Locals("requestid")),
		)
		return err
	}
}
