package swapvault

import (
	"context"
	"fmt"

	"github.com/tendermint/tendermint/libs/log"
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

type contextKey int

const (
	contextKeyLogger contextKey = iota
	contextKeyProgramLog
)

// WithLogger sets the logger for this context.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the currently set logger, or DefaultLogger if none was
// set.
func GetLogger(ctx context.Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// ProgramLog collects the messages programs log while executing a
// transaction. The runtime returns them with the transaction result.
type ProgramLog struct {
	lines []string
}

// Lines returns the collected messages in the order they were logged.
func (l *ProgramLog) Lines() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.lines...)
}

// WithProgramLog attaches a collector for program messages.
func WithProgramLog(ctx context.Context, l *ProgramLog) context.Context {
	return context.WithValue(ctx, contextKeyProgramLog, l)
}

// Log records a program message. It is written to the program log attached
// to the context, if any, and to the context logger at debug level.
func Log(ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l, ok := ctx.Value(contextKeyProgramLog).(*ProgramLog); ok && l != nil {
		l.lines = append(l.lines, msg)
	}
	GetLogger(ctx).Debug(msg)
}
