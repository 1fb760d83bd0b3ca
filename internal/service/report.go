package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/lesson"
	"github.com/sakif/mathcode/internal/model"
	"github.com/sakif/mathcode/internal/report"
	"github.com/sakif/mathcode/internal/repository"
)

// CreateReportInput is what a student submits from a day's project tab.
type CreateReportInput struct {
	Day       int             `json:"day"`
	School    string          `json:"school"`
	StudentID string          `json:"studentId"`
	Name      string          `json:"name"`
	Problem   string          `json:"problem"`
	Code      string          `json:"code"`
	Result    string          `json:"result"`
	Status    executor.Status `json:"status"`
}

// ReportService archives and exports project reports.
type ReportService struct {
	repo      repository.ReportRepository
	exporter  *report.Exporter
	catalogue *lesson.Catalogue
	logger    *slog.Logger
}

func NewReportService(
	repo repository.ReportRepository,
	exporter *report.Exporter,
	catalogue *lesson.Catalogue,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		repo:      repo,
		exporter:  exporter,
		catalogue: catalogue,
		logger:    logger,
	}
}

// Create validates and stores a report. Only days with a project accept
// reports.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*model.Report, error) {
	r := &model.Report{
		Day:       in.Day,
		School:    strings.TrimSpace(in.School),
		StudentID: strings.TrimSpace(in.StudentID),
		Name:      strings.TrimSpace(in.Name),
		Problem:   strings.TrimSpace(in.Problem),
		Code:      in.Code,
		Result:    in.Result,
		Status:    in.Status,
	}
	if err := s.validate(r); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error("failed to create report",
			slog.Int("day", r.Day),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating report: %w", err)
	}

	s.logger.Info("report created", slog.String("id", r.ID), slog.Int("day", r.Day))
	return r, nil
}

func (s *ReportService) validate(r *model.Report) error {
	day, err := s.catalogue.Day(r.Day)
	if err != nil {
		return apperror.ValidationFailed("day", fmt.Sprintf("day %d does not exist", r.Day))
	}
	if !day.HasProject() {
		return apperror.ValidationFailed("day", fmt.Sprintf("day %d has no project", r.Day))
	}

	switch {
	case r.Name == "":
		return apperror.ValidationFailed("name", "name is required")
	case utf8.RuneCountInString(r.Name) > MaxNameLength:
		return apperror.ValidationFailed("name", fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	case utf8.RuneCountInString(r.School) > MaxSchoolLength:
		return apperror.ValidationFailed("school", fmt.Sprintf("school must be %d characters or less", MaxSchoolLength))
	case utf8.RuneCountInString(r.StudentID) > MaxStudentIDLength:
		return apperror.ValidationFailed("studentId", fmt.Sprintf("student ID must be %d characters or less", MaxStudentIDLength))
	case utf8.RuneCountInString(r.Problem) > MaxProblemLength:
		return apperror.ValidationFailed("problem", fmt.Sprintf("problem must be %d characters or less", MaxProblemLength))
	case len(r.Code) > MaxCodeLength:
		return apperror.ValidationFailed("code", fmt.Sprintf("code must be %d bytes or less", MaxCodeLength))
	case len(r.Result) > MaxResultLength:
		return apperror.ValidationFailed("result", fmt.Sprintf("result must be %d bytes or less", MaxResultLength))
	}

	switch r.Status {
	case "", executor.StatusSuccess, executor.StatusError:
	default:
		return apperror.ValidationFailed("status", "status must be success or error")
	}
	return nil
}

func (s *ReportService) GetByID(ctx context.Context, id string) (*model.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "report ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns summaries, newest first. day 0 lists every day.
func (s *ReportService) List(ctx context.Context, day, limit, offset int) ([]model.ReportSummary, error) {
	if limit <= 0 {
		limit = DefaultReportsLimit
	}
	limit = min(limit, MaxReportsLimit)

	reports, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: max(offset, 0),
		Day:    day,
	})
	if err != nil {
		s.logger.Error("failed to list reports", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "report ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("report deleted", slog.String("id", id))
	return nil
}

// WritePDF renders report id to w and returns the download file name.
// Nothing is written when the report does not exist.
func (s *ReportService) WritePDF(ctx context.Context, id string, w io.Writer) (*model.Report, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.exporter.PDF(w, r, s.projectTitle(r.Day)); err != nil {
		return nil, fmt.Errorf("exporting report %s: %w", id, err)
	}
	return r, nil
}

// Markdown renders report id as Markdown.
func (s *ReportService) Markdown(ctx context.Context, id string) (*model.Report, string, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return r, report.Markdown(r, s.projectTitle(r.Day)), nil
}

func (s *ReportService) projectTitle(day int) string {
	d, err := s.catalogue.Day(day)
	if err != nil {
		return ""
	}
	return d.ProjectTitle
}
