package maple

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger is a Logger on top of a zap sugared logger.
type DefaultLogger struct {
	level zap.AtomicLevel
	log   *zap.SugaredLogger
}

// NewDefaultLogger builds a console logger. It falls back to a no-op zap
// core if the configuration cannot be built.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	level := "info"
	if debug {
		level = "debug"
	}
	l, err := NewLogger(LoggingConfig{Level: level, Format: "console", Prefix: prefix})
	if err != nil {
		return &DefaultLogger{level: zap.NewAtomicLevel(), log: zap.NewNop().Sugar()}
	}
	return l
}

// NewLogger builds a logger from config: "json" format selects zap's
// production encoder, anything else a coloured console encoder.
func NewLogger(cfg LoggingConfig) (*DefaultLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	base, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if cfg.Prefix != "" {
		base = base.Named(cfg.Prefix)
	}

	return &DefaultLogger{level: zapCfg.Level, log: base.Sugar()}, nil
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	if enabled {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.log.Debugf(format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }

// Sync flushes buffered entries.
func (l *DefaultLogger) Sync() error {
	return l.log.Sync()
}

// LoggingModule installs Logger as a resource, or a console logger built
// from Prefix and Debug when Logger is nil. It replaces a logger installed
// earlier by ConfigModule.
type LoggingModule struct {
	Logger *DefaultLogger
	Prefix string
	Debug  bool
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	logger := m.Logger
	if logger == nil {
		logger = NewDefaultLogger(m.Prefix, m.Debug)
	}
	ContextRemove[DefaultLogger](app.ctx)
	app.addResources(logger)
}

// Nop logger and App helper accessor

type nopLogger struct{}

var nop Logger = &nopLogger{}

func NewNopLogger() Logger                             { return nop }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the app's logger, or a no-op logger when none is installed.
// Safe to call at any time; never returns nil. The lookup is cached until
// the resources change.
func (app *App) Logger() Logger {
	if app == nil || app.ctx == nil {
		return nop
	}
	if app.logger == nil || app.loggerVersion != app.ctx.version {
		app.logger, app.loggerVersion = app.findLogger(), app.ctx.version
	}
	return app.logger
}

// findLogger prefers the DefaultLogger. Other Logger resources are taken in
// type name order.
func (app *App) findLogger() Logger {
	if l := ContextFind[DefaultLogger](app.ctx); l != nil {
		return l
	}
	var found Logger
	var foundName string
	app.ctx.each(func(r any) bool {
		l, ok := r.(Logger)
		if !ok {
			return true
		}
		if name := reflect.TypeOf(r).String(); found == nil || name < foundName {
			found, foundName = l, name
		}
		return true
	})
	if found == nil {
		return nop
	}
	return found
}
