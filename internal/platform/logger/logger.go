package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a key/value logger over zap that scrubs credentials and pet
// owners' email addresses before they reach the sink.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

type modeConfig struct {
	base  func() zap.Config
	level zapcore.Level
}

var modes = map[string]modeConfig{
	"prod":        {zap.NewProductionConfig, zapcore.InfoLevel},
	"production":  {zap.NewProductionConfig, zapcore.InfoLevel},
	"test":        {zap.NewDevelopmentConfig, zapcore.WarnLevel},
	"dev":         {zap.NewDevelopmentConfig, zapcore.DebugLevel},
	"development": {zap.NewDevelopmentConfig, zapcore.DebugLevel},
}

// New builds a logger for LOG_MODE. Unknown or empty modes log at debug level
// to the console.
func New(mode string) (*Logger, error) {
	mc, ok := modes[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		mc = modes["dev"]
	}
	cfg := mc.base()
	cfg.Level = zap.NewAtomicLevelAt(mc.level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return FromZap(z), nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{SugaredLogger: z.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, scrub(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, scrub(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, scrub(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, scrub(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.SugaredLogger.Fatalw(msg, scrub(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(kv)...)}
}

const redacted = "[REDACTED]"

var secretKeyParts = []string{"token", "authorization", "password", "secret", "cookie", "api_key"}

// scrub copies kv with secret values replaced. A trailing key without a value
// is kept so zap can report it.
func scrub(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := strings.ToLower(strings.TrimSpace(fmt.Sprint(out[i])))
		out[i+1] = scrubValue(key, out[i+1])
	}
	return out
}

func scrubValue(key string, val any) any {
	for _, part := range secretKeyParts {
		if strings.Contains(key, part) {
			return redacted
		}
	}
	s, ok := val.(string)
	if !ok {
		return val
	}
	if looksLikeJWT(s) {
		return redacted
	}
	if key == "email" || strings.HasSuffix(key, "_email") {
		return maskEmail(s)
	}
	return val
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

// maskEmail keeps the first letter of the local part and the domain:
// "maria@example.com" becomes "m***@example.com".
func maskEmail(s string) string {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return redacted
	}
	return s[:1] + "***" + s[at:]
}
