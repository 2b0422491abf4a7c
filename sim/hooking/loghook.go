package hooking

import (
	"github.com/sirupsen/logrus"
)

// A LogHook writes every hook invocation into a logger.
type LogHook struct {
	logger logrus.FieldLogger
	level  logrus.Level
}

// NewLogHook creates a LogHook that logs at the given level.
func NewLogHook(logger logrus.FieldLogger, level logrus.Level) *LogHook {
	return &LogHook{
		logger: logger,
		level:  level,
	}
}

// Func logs the domain, the position and the item of the invocation.
func (h *LogHook) Func(ctx HookCtx) {
	fields := logrus.Fields{
		"item": ctx.Item,
	}

	if ctx.Domain != nil {
		fields["domain"] = ctx.Domain.Name()
	}

	if ctx.Pos != nil {
		fields["pos"] = ctx.Pos.Name
	}

	h.logger.WithFields(fields).Log(h.level, "hook")
}
