package worker_test

import (
	"context"

	"pathwise.app/audit/internal/audit"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/queue"
	"pathwise.app/audit/internal/store"
	"pathwise.app/audit/internal/worker"
)

type mockConsumer struct {
	readFn func(ctx context.Context) ([]queue.Message, error)

	acked    []string
	requeued []string
	dlqd     []string

	requeueErrs []string
	dlqErrs     []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.requeued = append(m.requeued, msg.ID)
	m.requeueErrs = append(m.requeueErrs, errMsg)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.dlqd = append(m.dlqd, msg.ID)
	m.dlqErrs = append(m.dlqErrs, errMsg)
	return nil
}

type mockPlanStore struct {
	getByIDFn  func(ctx context.Context, id int64) (*model.Plan, error)
	loadFullFn func(ctx context.Context, plan *model.Plan) error
}

func (m *mockPlanStore) GetByID(ctx context.Context, id int64) (*model.Plan, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.Plan{ID: id}, nil
}

func (m *mockPlanStore) GetBySlug(ctx context.Context, slug string) (*model.Plan, error) {
	return nil, nil
}

func (m *mockPlanStore) LoadFull(ctx context.Context, plan *model.Plan) error {
	if m.loadFullFn != nil {
		return m.loadFullFn(ctx, plan)
	}
	return nil
}

func (m *mockPlanStore) Create(ctx context.Context, plan *model.Plan) error { return nil }

func (m *mockPlanStore) Update(ctx context.Context, plan *model.Plan) error { return nil }

func (m *mockPlanStore) UpdateStatus(ctx context.Context, id int64, status model.PlanStatus) error {
	return nil
}

func (m *mockPlanStore) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockPlanStore) ListByUser(ctx context.Context, userID int64) ([]model.Plan, error) {
	return nil, nil
}

func (m *mockPlanStore) ReplaceAreas(ctx context.Context, planID int64, areas []model.PlanArea) error {
	return nil
}

func (m *mockPlanStore) ReplaceElectives(ctx context.Context, planID int64, electives []model.PlanCourse) error {
	return nil
}

func (m *mockPlanStore) ReplacePLOMappings(ctx context.Context, planID int64, mappings map[string][]string) error {
	return nil
}

type mockReportStore struct {
	claimQueuedFn func(ctx context.Context, id int64) (bool, *model.ValidationReport, error)

	completed     []int64
	completedJSON [][]byte
	failed        []int64
	failedReasons []string
}

func (m *mockReportStore) GetByID(ctx context.Context, id int64) (*model.ValidationReport, error) {
	return nil, nil
}

func (m *mockReportStore) GetLatestByPlan(ctx context.Context, planID int64) (*model.ValidationReport, error) {
	return nil, nil
}

func (m *mockReportStore) Create(ctx context.Context, report *model.ValidationReport) error {
	return nil
}

func (m *mockReportStore) ClaimQueued(ctx context.Context, id int64) (bool, *model.ValidationReport, error) {
	if m.claimQueuedFn != nil {
		return m.claimQueuedFn(ctx, id)
	}
	return false, nil, nil
}

func (m *mockReportStore) MarkComplete(ctx context.Context, id int64, passed bool, report []byte) error {
	m.completed = append(m.completed, id)
	m.completedJSON = append(m.completedJSON, report)
	return nil
}

func (m *mockReportStore) MarkFailed(ctx context.Context, id int64, errMsg *string) error {
	m.failed = append(m.failed, id)
	reason := ""
	if errMsg != nil {
		reason = *errMsg
	}
	m.failedReasons = append(m.failedReasons, reason)
	return nil
}

func (m *mockReportStore) ListByPlan(ctx context.Context, planID int64, limit int32) ([]model.ValidationReport, error) {
	return nil, nil
}

type mockStoreProvider struct {
	plans   *mockPlanStore
	reports *mockReportStore
}

func (m *mockStoreProvider) Plans() store.PlanStore {
	return m.plans
}

func (m *mockStoreProvider) Reports() store.ReportStore {
	return m.reports
}

type mockTxRunner struct {
	provider *mockStoreProvider
	err      error
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(stores worker.StoreProvider) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(m.provider)
}

type mockAuditor struct {
	processFn func(ctx context.Context, plan *model.Plan, projected bool) (*audit.Report, error)

	processCalls int
}

func (m *mockAuditor) Process(ctx context.Context, plan *model.Plan, projected bool) (*audit.Report, error) {
	m.processCalls++
	if m.processFn != nil {
		return m.processFn(ctx, plan, projected)
	}
	return &audit.Report{}, nil
}

type mockSyncer struct {
	syncFn func(ctx context.Context) error

	syncCalls int
}

func (m *mockSyncer) Sync(ctx context.Context) error {
	m.syncCalls++
	if m.syncFn != nil {
		return m.syncFn(ctx)
	}
	return nil
}

type mockFactsSource struct {
	factsForFn func(ctx context.Context, codes []string) (audit.Facts, error)

	factsForCalls [][]string
}

func (m *mockFactsSource) FactsFor(ctx context.Context, codes []string) (audit.Facts, error) {
	m.factsForCalls = append(m.factsForCalls, codes)
	if m.factsForFn != nil {
		return m.factsForFn(ctx, codes)
	}
	return audit.Facts{}, nil
}
