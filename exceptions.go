package hxfaces

import (
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// ExceptionHandler decides what the errors of a phase mean for the request.
// It runs after every phase with the errors queued during it; a non-nil
// result ends the lifecycle.
type ExceptionHandler interface {
	Handle(ctx *Context, phase PhaseID, errs []error) error
}

// ExceptionHandlerFunc adapts a function to ExceptionHandler.
type ExceptionHandlerFunc func(ctx *Context, phase PhaseID, errs []error) error

func (f ExceptionHandlerFunc) Handle(ctx *Context, phase PhaseID, errs []error) error {
	return f(ctx, phase, errs)
}

// defaultExceptionHandler logs aborted events and fails the request with all
// other errors combined.
type defaultExceptionHandler struct{}

func (defaultExceptionHandler) Handle(ctx *Context, phase PhaseID, errs []error) error {
	var result *multierror.Error
	for _, err := range errs {
		if IsAbortProcessing(err) {
			Logger().Debug("event processing aborted",
				zap.String("phase", phase.String()),
				zap.String("viewId", ctx.ViewID()),
				zap.Error(err))
			continue
		}
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
