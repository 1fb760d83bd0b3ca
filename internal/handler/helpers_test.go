package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/lesson"
	"github.com/sakif/mathcode/internal/report"
	sqliteRepo "github.com/sakif/mathcode/internal/repository/sqlite"
	"github.com/sakif/mathcode/internal/service"
	"github.com/sakif/mathcode/internal/web"
)

// MockExecutor is a fast stand-in for the sandbox, so handler tests need
// neither docker nor python.
type MockExecutor struct {
	CapturedReq executor.ExecutionRequest
	ReturnRes   *executor.ExecutionResult
	ReturnErr   error
}

func (m *MockExecutor) Execute(_ context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.CapturedReq = req
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnRes, nil
}

func (m *MockExecutor) Name() string { return "mock" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalogue(t *testing.T) *lesson.Catalogue {
	t.Helper()
	c, err := lesson.Load()
	require.NoError(t, err)
	return c
}

func testPages(t *testing.T) *web.Pages {
	t.Helper()
	p, err := web.ParsePages()
	require.NoError(t, err)
	return p
}

func testReportService(t *testing.T) *service.ReportService {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exporter, err := report.NewExporter("")
	require.NoError(t, err)
	return service.NewReportService(db, exporter, testCatalogue(t), testLogger())
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
