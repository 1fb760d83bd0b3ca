package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/service"
)

// ExecuteHandler serves the JSON execution endpoint used by the project
// editor and by scripts.
type ExecuteHandler struct {
	svc    *service.ExecutionService
	logger *slog.Logger
}

func NewExecuteHandler(svc *service.ExecutionService, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleExecute runs {"code", "stdin"} and answers with the result.
//
// HTTP: POST /api/execute
//
// A program that raises still answers 200 with "status": "error"; only a
// bad request (400) or a missing backend (503) is an HTTP failure. Empty
// code is accepted and yields the no-output placeholder.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req executor.ExecutionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid execution request body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, err := h.svc.Run(r.Context(), req.Code, req.Stdin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
