// Package handler contains the HTTP handlers.
//
// Handlers are the glue between HTTP and the service layer: parse the
// request, call one service method, write the answer. They hold no business
// rules. Each handler is a struct so parsed templates and services are
// injected once at startup instead of living in globals.
package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/lesson"
	"github.com/sakif/mathcode/internal/render"
	"github.com/sakif/mathcode/internal/service"
	"github.com/sakif/mathcode/internal/web"
)

// LessonHandler serves the day pages and runs the code blocks on them.
type LessonHandler struct {
	catalogue *lesson.Catalogue
	exec      *service.ExecutionService
	pages     *web.Pages
	logger    *slog.Logger
}

func NewLessonHandler(
	catalogue *lesson.Catalogue,
	exec *service.ExecutionService,
	pages *web.Pages,
	logger *slog.Logger,
) *LessonHandler {
	return &LessonHandler{
		catalogue: catalogue,
		exec:      exec,
		pages:     pages,
		logger:    logger,
	}
}

type pageData struct {
	Title  string
	Course string
	Grade  string
	Days   []*lesson.Day
	Day    *lesson.Day
}

// HandleIndex lists the days.
//
// HTTP: GET /
func (h *LessonHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, web.PageIndex, pageData{
		Title:  h.catalogue.Course,
		Course: h.catalogue.Course,
		Grade:  h.catalogue.Grade,
		Days:   h.catalogue.Days(),
	})
}

// HandleDay renders one day with an editor per problem, seeded from the
// starter code.
//
// HTTP: GET /lessons/{day}
func (h *LessonHandler) HandleDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.render(w, web.PageDay, pageData{
		Title:  day.Title + " · " + h.catalogue.Course,
		Course: h.catalogue.Course,
		Grade:  h.catalogue.Grade,
		Day:    day,
	})
}

// HandleRun executes the posted editor text of one problem and answers with
// the rendered result fragment, ready to be placed under the editor.
//
// HTTP: POST /lessons/{day}/problems/{key}/run (form: code, stdin)
func (h *LessonHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		writeError(w, err)
		return
	}
	key := chi.URLParam(r, "key")
	if _, err := h.catalogue.Problem(day.Number, key); err != nil {
		writeError(w, err)
		return
	}

	if err := parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.exec.Run(r.Context(), r.PostForm.Get("code"), r.PostForm.Get("stdin"))
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Debug("problem run",
		slog.Int("day", day.Number),
		slog.String("problem", key),
		slog.String("status", string(res.Status)),
	)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(render.Render(res)))
}

func (h *LessonHandler) day(r *http.Request) (*lesson.Day, error) {
	raw := chi.URLParam(r, "day")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.NotFound("day", raw)
	}
	return h.catalogue.Day(n)
}

// render buffers the page so a template failure can still become a clean
// 500 instead of a half-written document.
func (h *LessonHandler) render(w http.ResponseWriter, page string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages.Render(&buf, page, data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
