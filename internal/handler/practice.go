package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mathcode/internal/apperror"
	"github.com/sakif/mathcode/internal/lesson"
	"github.com/sakif/mathcode/internal/sequence"
)

// PracticeHandler serves the small computed widgets on the day pages: the
// day 1 diagnostic and the sequence explorer.
type PracticeHandler struct {
	logger *slog.Logger
}

func NewPracticeHandler(logger *slog.Logger) *PracticeHandler {
	return &PracticeHandler{logger: logger}
}

type diagnosticRequest struct {
	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
}

type diagnosticResponse struct {
	RecommendedDay int `json:"recommendedDay"`
}

// HandleDiagnostic grades the two diagnostic answers.
//
// HTTP: POST /api/diagnostic
func (h *PracticeHandler) HandleDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req diagnosticRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	day := lesson.Grade(req.Q1, req.Q2)
	h.logger.Info("diagnostic graded", slog.Int("recommended_day", day))
	writeJSON(w, http.StatusOK, diagnosticResponse{RecommendedDay: day})
}

type sequenceResponse struct {
	Kind  string    `json:"kind"`
	Terms []float64 `json:"terms"`
	Sum   float64   `json:"sum"`
}

// HandleSequence returns the first n terms of a sequence and their sum.
//
// HTTP: GET /api/sequences/{kind}?a1=&d=&n=   (arithmetic)
//
//	GET /api/sequences/{kind}?a1=&r=&n=   (geometric)
func (h *PracticeHandler) HandleSequence(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	q := r.URL.Query()

	stepName := "d"
	if kind == sequence.KindGeometric {
		stepName = "r"
	}

	a1, err := floatParam(q.Get("a1"), "a1")
	if err != nil {
		writeError(w, err)
		return
	}
	step, err := floatParam(q.Get(stepName), stepName)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := strconv.Atoi(q.Get("n"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("n", "n must be an integer"))
		return
	}

	seq, err := sequence.New(kind, a1, step)
	if err != nil {
		writeError(w, err)
		return
	}
	terms, err := seq.Terms(n)
	if err != nil {
		writeError(w, err)
		return
	}
	sum, err := seq.Sum(n)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sequenceResponse{Kind: seq.Kind(), Terms: terms, Sum: sum})
}

func floatParam(raw, name string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be a number")
	}
	return v, nil
}
