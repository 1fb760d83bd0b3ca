// Package model defines the data structures shared by the service, storage
// and export layers.
package model

import (
	"time"

	"github.com/sakif/mathcode/internal/executor"
)

// Defaults written into a report when the student left a part empty.
const (
	NoProblemText = "작성된 문제 설명 없음"
	NoResult      = "실행 결과 없음"
)

// Report is a student's "make your own problem" project: the problem they
// wrote, the code that solves it, and what the code printed when they last
// ran it. It is the only thing the server persists.
type Report struct {
	ID        string          `json:"id"`
	Day       int             `json:"day"`
	School    string          `json:"school"`
	StudentID string          `json:"studentId"`
	Name      string          `json:"name"`
	Problem   string          `json:"problem"`
	Code      string          `json:"code"`
	Result    string          `json:"result"`
	Status    executor.Status `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ProblemText returns the problem description or its placeholder.
func (r *Report) ProblemText() string {
	if r.Problem == "" {
		return NoProblemText
	}
	return r.Problem
}

// ResultText returns the recorded output or its placeholder.
func (r *Report) ResultText() string {
	if r.Result == "" {
		return NoResult
	}
	return r.Result
}

// ExecutionResult rebuilds the run the report recorded.
func (r *Report) ExecutionResult() *executor.ExecutionResult {
	status := r.Status
	if status == "" {
		status = executor.StatusSuccess
	}
	return &executor.ExecutionResult{Output: r.ResultText(), Status: status}
}

// ReportSummary is the listing view of a report, without code and output.
type ReportSummary struct {
	ID        string    `json:"id"`
	Day       int       `json:"day"`
	School    string    `json:"school"`
	StudentID string    `json:"studentId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
