package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/lesson"
	"github.com/sakif/mathcode/internal/model"
	"github.com/sakif/mathcode/internal/report"
	"github.com/sakif/mathcode/internal/service"
)

func newReportService(t *testing.T) (*service.ReportService, *memoryReports) {
	t.Helper()
	catalogue, err := lesson.Load()
	require.NoError(t, err)
	exporter, err := report.NewExporter("")
	require.NoError(t, err)

	repo := newMemoryReports()
	return service.NewReportService(repo, exporter, catalogue, discardLogger()), repo
}

func validInput() service.CreateReportInput {
	return service.CreateReportInput{
		Day:       3,
		School:    "  한빛중학교 ",
		StudentID: "20301",
		Name:      " 김민지 ",
		Problem:   "첫째항이 3, 공차가 4인 등차수열의 10번째 항은?",
		Code:      "a, d = 3, 4\nprint(a + 9 * d)",
		Result:    "39\n",
		Status:    executor.StatusSuccess,
	}
}

func TestReportService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and stores", func(t *testing.T) {
		svc, repo := newReportService(t)

		r, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, "한빛중학교", r.School)
		assert.Equal(t, "김민지", r.Name)
		assert.Len(t, repo.reports, 1)
	})

	tests := []struct {
		name   string
		mutate func(*service.CreateReportInput)
		field  string
	}{
		{"unknown day", func(in *service.CreateReportInput) { in.Day = 42 }, "day"},
		{"day without project", func(in *service.CreateReportInput) { in.Day = 1 }, "day"},
		{"blank name", func(in *service.CreateReportInput) { in.Name = "   " }, "name"},
		{"long name", func(in *service.CreateReportInput) { in.Name = strings.Repeat("가", service.MaxNameLength+1) }, "name"},
		{"long school", func(in *service.CreateReportInput) { in.School = strings.Repeat("a", service.MaxSchoolLength+1) }, "school"},
		{"long code", func(in *service.CreateReportInput) { in.Code = strings.Repeat("x", service.MaxCodeLength+1) }, "code"},
		{"bad status", func(in *service.CreateReportInput) { in.Status = "timeout" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newReportService(t)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(ctx, in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
			assert.Empty(t, repo.reports)
		})
	}

	t.Run("name at the limit counts runes", func(t *testing.T) {
		svc, _ := newReportService(t)
		in := validInput()
		in.Name = strings.Repeat("가", service.MaxNameLength)

		_, err := svc.Create(ctx, in)
		assert.NoError(t, err)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		svc, repo := newReportService(t)
		repo.createErr = errors.New("disk full")

		_, err := svc.Create(ctx, validInput())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "creating report")
	})
}

func TestReportService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo := newReportService(t)

	for _, day := range []int{3, 3, 4} {
		in := validInput()
		in.Day = day
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, 0, 0, -5)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, service.DefaultReportsLimit, repo.lastOpts.Limit)
	assert.Equal(t, 0, repo.lastOpts.Offset)

	day4, err := svc.List(ctx, 4, 500, 0)
	require.NoError(t, err)
	assert.Len(t, day4, 1)
	assert.Equal(t, service.MaxReportsLimit, repo.lastOpts.Limit)
}

func TestReportService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReportService(t)

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, " "+created.ID+" ")
	require.NoError(t, err)
	assert.Equal(t, created.Code, got.Code)

	_, err = svc.GetByID(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), apperror.ErrNotFound)

	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestReportService_Export(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReportService(t)

	in := validInput()
	in.Problem = ""
	in.Result = "ZeroDivisionError: division by zero"
	in.Status = executor.StatusError
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)

	t.Run("pdf", func(t *testing.T) {
		var buf bytes.Buffer
		r, err := svc.WritePDF(ctx, created.ID, &buf)
		require.NoError(t, err)
		assert.Equal(t, created.ID, r.ID)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})

	t.Run("pdf of missing report writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := svc.WritePDF(ctx, "missing", &buf)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Zero(t, buf.Len())
	})

	t.Run("markdown", func(t *testing.T) {
		_, md, err := svc.Markdown(ctx, created.ID)
		require.NoError(t, err)
		assert.Contains(t, md, "나만의 등차수열 문제 만들기")
		assert.Contains(t, md, model.NoProblemText)
		assert.Contains(t, md, "ZeroDivisionError: division by zero")
	})
}
