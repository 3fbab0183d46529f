package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"pathwise.app/audit/common/logger"
	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/store"
)

// Mirrors service.StoreProvider - defined here to avoid import cycles.
type StoreProvider interface {
	Plans() store.PlanStore
	Reports() store.ReportStore
}

// Mirrors service.TxRunner - defined here to avoid import cycles.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  Consumer
	txRunner  TxRunner
	processor PlanAuditor
	syncer    CatalogSyncer
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, txRunner TxRunner, processor PlanAuditor, syncer CatalogSyncer, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		txRunner:  txRunner,
		processor: processor,
		syncer:    syncer,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"task_type", msg.TaskType)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"task_type", msg.TaskType)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// Exported so it can be reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) (err error) {
	// Resume the trace the producer stamped on the message so the audit run
	// shows up under the originating request.
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer func() {
		sc.RecordError(err)
		sc.End()
	}()

	taskType := string(msg.TaskType)
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		MessageID: &msg.ID,
		TaskType:  &taskType,
		Component: "audit.worker.processor",
	})

	switch msg.TaskType {
	case queue.TaskTypeCatalogSync:
		return w.processCatalogSync(ctx, msg)
	case queue.TaskTypePlanAudit:
		return w.processPlanAudit(ctx, msg)
	default:
		// ParseMessage rejects unknown types; anything arriving here was
		// hand-crafted. Retrying cannot help, so ACK it away.
		slog.ErrorContext(ctx, "unknown task type, acknowledging",
			"task_type", msg.TaskType,
			"message_id", msg.ID)
		w.ack(ctx, msg)
		return nil
	}
}

func (w *Worker) processPlanAudit(ctx context.Context, msg queue.Message) error {
	if msg.ReportID == nil || msg.PlanID == nil {
		slog.ErrorContext(ctx, "plan audit message missing ids, acknowledging",
			"message_id", msg.ID)
		w.ack(ctx, msg)
		return nil
	}
	reportID := *msg.ReportID

	slog.InfoContext(ctx, "processing plan audit",
		"message_id", msg.ID,
		"report_id", reportID,
		"plan_id", *msg.PlanID,
		"attempt", msg.Attempt)

	var terminalErr error

	// Single transaction: claim -> validate -> complete. A rollback also
	// releases the claim, so redelivery can pick the report up again.
	txErr := w.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		claimed, report, err := sp.Reports().ClaimQueued(ctx, reportID)
		if err != nil {
			return fmt.Errorf("claiming report: %w", err)
		}

		if !claimed {
			// Already running or finished - expected under redelivery.
			slog.InfoContext(ctx, "report not claimable, skipping",
				"report_id", reportID)
			return nil // Not an error - just ACK and move on
		}

		plan, err := sp.Plans().GetByID(ctx, report.PlanID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				terminalErr = err
				reason := "plan no longer exists"
				if markErr := sp.Reports().MarkFailed(ctx, report.ID, &reason); markErr != nil {
					return fmt.Errorf("marking report failed: %w", markErr)
				}
				return nil // Commit the failure; the plan is gone for good.
			}
			return fmt.Errorf("loading plan: %w", err)
		}
		if err := sp.Plans().LoadFull(ctx, plan); err != nil {
			return fmt.Errorf("loading plan detail: %w", err)
		}

		result, err := w.processor.Process(ctx, plan, report.Projected)
		if err != nil {
			var confErr *audit.ConfigurationError
			if errors.As(err, &confErr) {
				// A broken rule set fails the report for good; retrying
				// cannot fix configuration.
				terminalErr = err
				reason := err.Error()
				if markErr := sp.Reports().MarkFailed(ctx, report.ID, &reason); markErr != nil {
					return fmt.Errorf("marking report failed: %w", markErr)
				}
				return nil
			}
			return fmt.Errorf("running validation: %w", err)
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}

		if err := sp.Reports().MarkComplete(ctx, report.ID, result.Passed, payload); err != nil {
			return fmt.Errorf("marking report complete: %w", err)
		}

		slog.InfoContext(ctx, "plan audit completed",
			"report_id", report.ID,
			"plan_id", report.PlanID,
			"passed", result.Passed)

		return nil
	})

	if txErr != nil {
		// Transaction failed - don't ACK, let Redis redeliver
		return fmt.Errorf("transaction failed: %w", txErr)
	}

	w.ack(ctx, msg)

	if terminalErr != nil {
		slog.WarnContext(ctx, "plan audit failed terminally",
			"error", terminalErr,
			"report_id", reportID)
	}

	return nil
}

func (w *Worker) processCatalogSync(ctx context.Context, msg queue.Message) error {
	slog.InfoContext(ctx, "processing catalog sync",
		"message_id", msg.ID,
		"attempt", msg.Attempt)

	// The sync rebuilds the projections wholesale and is safe to rerun,
	// so no transaction is needed here.
	if err := w.syncer.Sync(ctx); err != nil {
		return fmt.Errorf("catalog sync: %w", err)
	}

	w.ack(ctx, msg)
	return nil
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Log but don't fail - message will be reclaimed but that's safe
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"task_type", msg.TaskType,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"task_type", msg.TaskType,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
