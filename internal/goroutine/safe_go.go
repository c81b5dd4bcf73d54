// Package goroutine запускает фоновые задачи так, чтобы паника не роняла процесс.
package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/grantwriter-backend/internal/logger"
)

// PanicHandler получает имя задачи, значение паники и стек.
type PanicHandler func(name string, recovered any, stack []byte)

type Runner struct {
	onPanic PanicHandler
}

func NewRunner(onPanic PanicHandler) *Runner {
	if onPanic == nil {
		onPanic = logPanic
	}
	return &Runner{onPanic: onPanic}
}

// Go запускает fn в отдельной горутине.
func (r *Runner) Go(name string, fn func()) {
	go func() {
		defer r.handlePanic(name)
		fn()
	}()
}

func (r *Runner) GoContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer r.handlePanic(name)
		fn(ctx)
	}()
}

func (r *Runner) handlePanic(name string) {
	if v := recover(); v != nil {
		r.onPanic(name, v, debug.Stack())
	}
}

func logPanic(name string, recovered any, stack []byte) {
	logger.L().WithFields(logrus.Fields{
		"goroutine": name,
		"panic":     fmt.Sprint(recovered),
		"stack":     string(stack),
	}).Error("паника в горутине")
}

var defaultRunner = NewRunner(logPanic)

// SafeGo запускает задачу через общий Runner, паники уходят в logrus.
func SafeGo(name string, fn func()) {
	defaultRunner.Go(name, fn)
}

func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	defaultRunner.GoContext(ctx, name, fn)
}
