package logging

import (
	"fmt"

	"go.uber.org/zap"
)

type impl struct {
	name  string
	level zap.AtomicLevel
	base  *zap.Logger
}

func (imp *impl) sugar() *zap.SugaredLogger {
	// one extra frame for the impl method itself
	return imp.base.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	for _, l := range []Level{DEBUG, INFO, WARN, ERROR} {
		if l.AsZap() == imp.level.Level() {
			return l
		}
	}
	return INFO
}

// Sublogger shares the parent's level, so changing either one changes both.
func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return &impl{
		name:  newName,
		level: imp.level,
		base:  imp.base.Named(subname),
	}
}

func (imp *impl) Sync() error {
	return imp.base.Sync()
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.base.Sugar()
}

func (imp *impl) Debug(args ...interface{}) {
	imp.sugar().Debug(args...)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.sugar().Debugf(template, args...)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sugar().Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) {
	imp.sugar().Info(args...)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.sugar().Infof(template, args...)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sugar().Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) {
	imp.sugar().Warn(args...)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.sugar().Warnf(template, args...)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sugar().Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) {
	imp.sugar().Error(args...)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.sugar().Errorf(template, args...)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sugar().Errorw(msg, keysAndValues...)
}
