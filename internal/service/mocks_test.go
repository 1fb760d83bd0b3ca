package service_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/model"
	"github.com/sakif/mathcode/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockExecutor records the last request and returns a canned result.
type mockExecutor struct {
	captured executor.ExecutionRequest
	calls    int
	res      *executor.ExecutionResult
	err      error
}

func (m *mockExecutor) Execute(_ context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.captured = req
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.res, nil
}

func (m *mockExecutor) Name() string { return "mock" }

// memoryReports is an in-memory repository.ReportRepository.
type memoryReports struct {
	mu        sync.Mutex
	reports   map[string]*model.Report
	lastOpts  repository.ListOptions
	createErr error
}

func newMemoryReports() *memoryReports {
	return &memoryReports{reports: make(map[string]*model.Report)}
}

func (m *memoryReports) Create(_ context.Context, r *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	r.ID = xid.New().String()
	r.CreatedAt = time.Now().UTC()
	if r.Status == "" {
		r.Status = executor.StatusSuccess
	}
	stored := *r
	m.reports[r.ID] = &stored
	return nil
}

func (m *memoryReports) GetByID(_ context.Context, id string) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, apperror.NotFound("report", id)
	}
	out := *r
	return &out, nil
}

func (m *memoryReports) List(_ context.Context, opts repository.ListOptions) ([]model.ReportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = opts

	var out []model.ReportSummary
	for _, r := range m.reports {
		if opts.Day != 0 && r.Day != opts.Day {
			continue
		}
		out = append(out, model.ReportSummary{
			ID: r.ID, Day: r.Day, School: r.School, StudentID: r.StudentID,
			Name: r.Name, CreatedAt: r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if opts.Offset >= len(out) {
		return []model.ReportSummary{}, nil
	}
	out = out[opts.Offset:]
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryReports) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return apperror.NotFound("report", id)
	}
	delete(m.reports, id)
	return nil
}
