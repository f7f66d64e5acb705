package dispatcher

import (
	"context"

	"github.com/google/uuid"

	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/logger"
	"github.com/heyjunin/TurboConvert/pkg/progress"
)

// Kind names what an operation does.
type Kind string

const (
	KindConvert  Kind = "convert"
	KindCompress Kind = "compress"
	KindDownload Kind = "download"
	KindEncode   Kind = "encode"
)

// Operation identifies one background execution.
type Operation struct {
	ID     string
	Kind   Kind
	Source string
}

// Result is delivered once per Operation.
type Result struct {
	Operation
	OutputPath string
	Err        error
}

// Task is the body of a worker. It publishes progress only through pub.
type Task func(ctx context.Context, pub progress.Publisher) (string, error)

// Worker is a running operation.
type Worker struct {
	Operation
	result chan Result
}

// Result returns the channel that receives the operation's single Result.
func (w *Worker) Result() <-chan Result {
	return w.result
}

// Wait blocks until the operation finishes.
func (w *Worker) Wait() Result {
	return <-w.result
}

// NewOperationID returns a time-ordered UUID.
func NewOperationID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// Go starts task on its own goroutine with a private progress stream opened on hub.
// There is no pool and no limit: each call is an independent worker. The worker
// publishes Started before task runs and Finished or Failed after it returns.
func Go(ctx context.Context, hub *progress.Hub, kind Kind, source string, task Task) *Worker {
	w := &Worker{
		Operation: Operation{ID: NewOperationID(), Kind: kind, Source: source},
		result:    make(chan Result, 1),
	}
	stream := hub.Open(w.ID)

	go func() {
		defer close(w.result)
		defer stream.Close()

		stream.Publish(progress.PhaseStarted, 0, string(kind))
		output, err := task(ctx, stream)
		if err != nil {
			logger.Error("Operation failed", "worker", map[string]interface{}{
				"id":     w.ID,
				"kind":   string(kind),
				"source": source,
				"error":  err.Error(),
				"type":   string(errors.TypeOf(err)),
			})
			stream.Publish(progress.PhaseFailed, 0, err.Error())
		} else {
			stream.Publish(progress.PhaseFinished, 1, output)
		}
		w.result <- Result{Operation: w.Operation, OutputPath: output, Err: err}
	}()
	return w
}
