package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ErrorHandler logs failed and panicking jobs. River keeps its own retry
// bookkeeping, so the handler never overrides the result.
type ErrorHandler struct {
	Logger *slog.Logger
}

func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{Logger: logger}
}

func (h *ErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	if h.Logger != nil {
		h.Logger.ErrorContext(ctx, "job failed",
			"job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "max_attempts", job.MaxAttempts, "error", err)
	}
	return nil
}

func (h *ErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	if h.Logger != nil {
		h.Logger.ErrorContext(ctx, "job panicked",
			"job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "error", fmt.Errorf("panic: %v", panicVal), "trace", trace)
	}
	return nil
}
