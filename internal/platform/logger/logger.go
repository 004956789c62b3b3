package logger

import (
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration.
type Config struct {
	Debug     bool
	SentryDSN string
	Service   string
}

// Logger bundles the zap logger with the Sentry client it reports to, so
// callers can flush buffered events on shutdown.
type Logger struct {
	*zap.Logger
	sentry *sentry.Client
}

// New builds a zap logger. When a Sentry DSN is configured, error-level
// entries are forwarded to Sentry and lower levels become breadcrumbs.
func New(cfg Config) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	base, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Service != "" {
		base = base.With(zap.String("service", cfg.Service))
	}

	if cfg.SentryDSN == "" {
		return &Logger{Logger: base}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:   cfg.SentryDSN,
		Debug: cfg.Debug,
	})
	if err != nil {
		return nil, err
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
		Tags:              map[string]string{"service": cfg.Service},
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapsentry.AttachCoreToLogger(core, base),
		sentry: client,
	}, nil
}

// Close syncs zap and flushes pending Sentry events.
func (l *Logger) Close(timeout time.Duration) {
	_ = l.Sync()
	if l.sentry != nil {
		l.sentry.Flush(timeout)
	}
}
