package handler

import "net/http"

type healthResponse struct {
	Status   string `json:"status"`
	Executor string `json:"executor"`
}

// HandleHealth reports liveness and the execution backend in use ("none"
// when no backend could be started).
//
// HTTP: GET /healthz
func (h *ExecuteHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Executor: h.svc.Backend()})
}
