package worker

import (
	"context"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// PlanAuditor abstracts the validation pipeline for testability.
type PlanAuditor interface {
	Process(ctx context.Context, plan *model.Plan, projected bool) (*audit.Report, error)
}

// CatalogSyncer abstracts the projection rebuild for testability.
type CatalogSyncer interface {
	Sync(ctx context.Context) error
}

// FactsSource abstracts catalog fact assembly for testability.
type FactsSource interface {
	FactsFor(ctx context.Context, codes []string) (audit.Facts, error)
}
