package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/store"
	"pathwise.app/audit/internal/worker"
)

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		consumer *mockConsumer
		plans    *mockPlanStore
		reports  *mockReportStore
		auditor  *mockAuditor
		syncer   *mockSyncer
		w        *worker.Worker

		reportID int64
		planID   int64
		msg      queue.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		plans = &mockPlanStore{}
		reports = &mockReportStore{}
		auditor = &mockAuditor{}
		syncer = &mockSyncer{}

		txRunner := &mockTxRunner{provider: &mockStoreProvider{plans: plans, reports: reports}}
		w = worker.New(consumer, txRunner, auditor, syncer, worker.Config{MaxAttempts: 3})

		reportID = 9001
		planID = 42
		msg = queue.Message{
			ID:       "1754000000000-0",
			TaskType: queue.TaskTypePlanAudit,
			ReportID: &reportID,
			PlanID:   &planID,
			Attempt:  1,
		}

		reports.claimQueuedFn = func(_ context.Context, id int64) (bool, *model.ValidationReport, error) {
			return true, &model.ValidationReport{ID: id, PlanID: planID, Status: model.ReportStatusRunning, Projected: true}, nil
		}
	})

	Describe("ProcessMessage for plan audits", func() {
		It("claims the report, runs the audit and stores the result", func() {
			var gotProjected bool
			auditor.processFn = func(_ context.Context, plan *model.Plan, projected bool) (*audit.Report, error) {
				Expect(plan.ID).To(Equal(planID))
				gotProjected = projected
				return &audit.Report{Passed: true}, nil
			}

			Expect(w.ProcessMessage(ctx, msg)).To(Succeed())

			Expect(gotProjected).To(BeTrue())
			Expect(reports.completed).To(Equal([]int64{reportID}))
			Expect(string(reports.completedJSON[0])).To(ContainSubstring(`"passed":true`))
			Expect(consumer.acked).To(Equal([]string{msg.ID}))
		})

		It("acks and skips when the report is not claimable", func() {
			reports.claimQueuedFn = func(_ context.Context, _ int64) (bool, *model.ValidationReport, error) {
				return false, nil, nil
			}

			Expect(w.ProcessMessage(ctx, msg)).To(Succeed())

			Expect(auditor.processCalls).To(BeZero())
			Expect(consumer.acked).To(Equal([]string{msg.ID}))
		})

		It("fails the report terminally on a broken rule set", func() {
			auditor.processFn = func(_ context.Context, _ *model.Plan, _ bool) (*audit.Report, error) {
				return nil, &audit.ConfigurationError{Reason: "total credit requirement must be positive"}
			}

			Expect(w.ProcessMessage(ctx, msg)).To(Succeed())

			Expect(reports.failed).To(Equal([]int64{reportID}))
			Expect(reports.failedReasons[0]).To(ContainSubstring("configuration"))
			Expect(reports.completed).To(BeEmpty())
			Expect(consumer.acked).To(Equal([]string{msg.ID}))
		})

		It("fails the report terminally when the plan no longer exists", func() {
			plans.getByIDFn = func(_ context.Context, _ int64) (*model.Plan, error) {
				return nil, store.ErrNotFound
			}

			Expect(w.ProcessMessage(ctx, msg)).To(Succeed())

			Expect(reports.failed).To(Equal([]int64{reportID}))
			Expect(reports.failedReasons[0]).To(Equal("plan no longer exists"))
			Expect(consumer.acked).To(Equal([]string{msg.ID}))
		})

		It("returns transient errors without acking so the message redelivers", func() {
			auditor.processFn = func(_ context.Context, _ *model.Plan, _ bool) (*audit.Report, error) {
				return nil, errors.New("graph unavailable")
			}

			err := w.ProcessMessage(ctx, msg)

			Expect(err).To(MatchError(ContainSubstring("graph unavailable")))
			Expect(consumer.acked).To(BeEmpty())
			Expect(reports.failed).To(BeEmpty())
		})
	})

	Describe("ProcessMessage for catalog syncs", func() {
		BeforeEach(func() {
			msg = queue.Message{ID: "1754000000001-0", TaskType: queue.TaskTypeCatalogSync, Attempt: 1}
		})

		It("runs the sync and acks", func() {
			Expect(w.ProcessMessage(ctx, msg)).To(Succeed())

			Expect(syncer.syncCalls).To(Equal(1))
			Expect(consumer.acked).To(Equal([]string{msg.ID}))
		})

		It("returns sync failures without acking", func() {
			syncer.syncFn = func(_ context.Context) error {
				return errors.New("typesense unreachable")
			}

			err := w.ProcessMessage(ctx, msg)

			Expect(err).To(MatchError(ContainSubstring("typesense unreachable")))
			Expect(consumer.acked).To(BeEmpty())
		})
	})

	Describe("batch failure handling", func() {
		It("requeues a failed message below the attempt limit", func() {
			consumer.readFn = func(_ context.Context) ([]queue.Message, error) {
				return []queue.Message{msg}, nil
			}
			auditor.processFn = func(_ context.Context, _ *model.Plan, _ bool) (*audit.Report, error) {
				return nil, errors.New("graph unavailable")
			}

			Expect(w.ProcessOneBatch(ctx)).To(Succeed())

			Expect(consumer.requeued).To(Equal([]string{msg.ID}))
			Expect(consumer.dlqd).To(BeEmpty())
		})

		It("sends the message to the DLQ at the attempt limit", func() {
			msg.Attempt = 3
			consumer.readFn = func(_ context.Context) ([]queue.Message, error) {
				return []queue.Message{msg}, nil
			}
			auditor.processFn = func(_ context.Context, _ *model.Plan, _ bool) (*audit.Report, error) {
				return nil, errors.New("graph unavailable")
			}

			Expect(w.ProcessOneBatch(ctx)).To(Succeed())

			Expect(consumer.dlqd).To(Equal([]string{msg.ID}))
			Expect(consumer.requeued).To(BeEmpty())
		})

		It("recovers from processor panics and requeues", func() {
			consumer.readFn = func(_ context.Context) ([]queue.Message, error) {
				return []queue.Message{msg}, nil
			}
			auditor.processFn = func(_ context.Context, _ *model.Plan, _ bool) (*audit.Report, error) {
				panic("nil dereference in checker")
			}

			Expect(w.ProcessOneBatch(ctx)).To(Succeed())

			Expect(consumer.requeued).To(Equal([]string{msg.ID}))
			Expect(consumer.requeueErrs[0]).To(ContainSubstring("panic"))
		})
	})
})
