package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/report"
	"github.com/sakif/mathcode/internal/service"
)

// ReportHandler serves project report submission and export.
//
// Students create and download reports without an account (the ID is the
// capability). Listing and deleting are instructor routes, mounted behind
// auth.RequireAuth by the server.
type ReportHandler struct {
	svc    *service.ReportService
	logger *slog.Logger
}

func NewReportHandler(svc *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleCreate stores a report.
//
// HTTP: POST /api/reports → 201 with the stored report
func (h *ReportHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateReportInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/reports/"+rep.ID+"/pdf")
	writeJSON(w, http.StatusCreated, rep)
}

// HandlePDF downloads a report as PDF.
//
// HTTP: GET /api/reports/{id}/pdf
func (h *ReportHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	// Buffered: a failure halfway through must not leave a truncated
	// download with a 200 status.
	var buf bytes.Buffer
	rep, err := h.svc.WritePDF(r.Context(), chi.URLParam(r, "id"), &buf)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(report.FileName(rep)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// HandleMarkdown downloads a report as Markdown.
//
// HTTP: GET /api/reports/{id}/markdown
func (h *ReportHandler) HandleMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, md, err := h.svc.Markdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	name := strings.TrimSuffix(report.FileName(rep), ".pdf") + ".md"
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(name))
	_, _ = w.Write([]byte(md))
}

// HandleList returns report summaries, newest first.
//
// HTTP: GET /api/reports?day=&limit=&offset=
func (h *ReportHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := intQuery(q, "day")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := intQuery(q, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := intQuery(q, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	reports, err := h.svc.List(r.Context(), day, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// HandleDelete removes a report.
//
// HTTP: DELETE /api/reports/{id} → 204
func (h *ReportHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return v, nil
}

// attachment builds a Content-Disposition value. Student names are Korean,
// so the RFC 5987 filename* form carries the real name and filename an
// ASCII fallback.
func attachment(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(name))
}
