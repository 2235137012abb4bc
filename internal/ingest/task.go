package ingest

import (
	"context"
	"sync"
)

// Task is the handle for a background ingestion run. Fire-and-forget
// callers can drop it after submission; the pipeline still logs failures.
// Callers that care (tests, synchronous admin flows) wait on Done.
type Task struct {
	DocumentID string

	once sync.Once
	done chan struct{}
	err  error
}

// Done is closed when the run finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the run's error. Valid only after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the run finishes or ctx is canceled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Submit starts Process in a background goroutine and returns its handle.
// The run is detached from the caller's cancellation: an admin request that
// returns immediately must not abort the ingestion it triggered. Failures
// are logged here, so abandoned handles never hide a rejection.
func (p *Pipeline) Submit(ctx context.Context, tenantID, documentID string) *Task {
	task := &Task{DocumentID: documentID, done: make(chan struct{})}
	runCtx := context.WithoutCancel(ctx)

	go func() {
		err := p.Process(runCtx, tenantID, documentID)
		if err != nil {
			p.logger.Error("background ingestion failed",
				"document_id", documentID, "tenant_id", tenantID, "error", err)
		}
		task.finish(err)
	}()

	return task
}
