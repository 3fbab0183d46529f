package worker

import "context"

// ProcessOneBatch exposes the batch loop body to tests.
func (w *Worker) ProcessOneBatch(ctx context.Context) error {
	return w.processOneBatch(ctx)
}
