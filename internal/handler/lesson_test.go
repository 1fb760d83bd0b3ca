package handler_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/handler"
	"github.com/sakif/mathcode/internal/render"
	"github.com/sakif/mathcode/internal/service"
)

func lessonRouter(t *testing.T, exec executor.Executor) http.Handler {
	t.Helper()
	h := handler.NewLessonHandler(testCatalogue(t),
		service.NewExecutionService(exec, testLogger()), testPages(t), testLogger())

	r := chi.NewRouter()
	r.Get("/", h.HandleIndex)
	r.Get("/lessons/{day}", h.HandleDay)
	r.Post("/lessons/{day}/problems/{key}/run", h.HandleRun)
	return r
}

const formType = "application/x-www-form-urlencoded"

func TestLessonHandler_Pages(t *testing.T) {
	r := lessonRouter(t, &MockExecutor{})

	t.Run("index lists days", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rr.Body.String(), `href="/lessons/1"`)
		assert.Contains(t, rr.Body.String(), `href="/lessons/4"`)
	})

	t.Run("day page seeds editors", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/lessons/1", "", "")
		body := rr.Body.String()

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, body, `id="d1_1_editor"`)
		assert.Contains(t, body, `id="d1_1_run"`)
		assert.Contains(t, body, "print(&#39;hello&#39;, 320)")
		assert.Contains(t, body, `id="d1_sel_하_data1_level_editor"`)
		assert.Contains(t, body, `id="diagnostic-form"`)
		assert.NotContains(t, body, `id="report-form"`)
	})

	t.Run("project day has report form", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/lessons/3", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `id="report-form"`)
		assert.Contains(t, rr.Body.String(), "나만의 등차수열 문제 만들기")
	})

	t.Run("unknown day", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/lessons/9", "", "").Code)
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/lessons/abc", "", "").Code)
	})
}

func TestLessonHandler_HandleRun(t *testing.T) {
	t.Run("success fragment", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnRes: &executor.ExecutionResult{
			Output: "hello 320\n21\n", Status: executor.StatusSuccess,
		}}
		r := lessonRouter(t, mockExec)

		form := url.Values{"code": {"print('hello', 320)\nprint(21)"}}
		rr := do(t, r, http.MethodPost, "/lessons/1/problems/d1_1/run", formType, form.Encode())

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, string(render.Render(mockExec.ReturnRes)), rr.Body.String())
		assert.Equal(t, "print('hello', 320)\nprint(21)", mockExec.CapturedReq.Code)
	})

	t.Run("error fragment", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnRes: &executor.ExecutionResult{
			Output: "NameError: name 'd' is not defined", Status: executor.StatusError,
		}}
		r := lessonRouter(t, mockExec)

		target := "/lessons/3/problems/" + url.PathEscape("d3_sel_상_level") + "/run"
		rr := do(t, r, http.MethodPost, target, formType, url.Values{"code": {"print(d)"}}.Encode())

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), render.ErrorHeading)
		assert.Contains(t, rr.Body.String(), "NameError")
	})

	t.Run("stdin is forwarded", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnRes: &executor.ExecutionResult{Output: "7\n", Status: executor.StatusSuccess}}
		r := lessonRouter(t, mockExec)

		form := url.Values{"code": {"print(input())"}, "stdin": {"7\n"}}
		do(t, r, http.MethodPost, "/lessons/1/problems/d1_3/run", formType, form.Encode())

		assert.Equal(t, "7\n", mockExec.CapturedReq.Stdin)
	})

	t.Run("korean code at the size limit", func(t *testing.T) {
		mockExec := &MockExecutor{ReturnRes: &executor.ExecutionResult{Output: "ok\n", Status: executor.StatusSuccess}}
		r := lessonRouter(t, mockExec)

		// 3 UTF-8 bytes per syllable, 9 once percent-encoded.
		code := "# " + strings.Repeat("가", (service.MaxCodeLength-2)/3)
		stdin := strings.Repeat("나", service.MaxStdinLength/3)
		form := url.Values{"code": {code}, "stdin": {stdin}}
		rr := do(t, r, http.MethodPost, "/lessons/1/problems/d1_1/run", formType, form.Encode())

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, code, mockExec.CapturedReq.Code)
		assert.Equal(t, stdin, mockExec.CapturedReq.Stdin)
	})

	t.Run("oversized body", func(t *testing.T) {
		r := lessonRouter(t, &MockExecutor{})
		body := "code=" + strings.Repeat("x", 4*(service.MaxCodeLength+service.MaxStdinLength))
		rr := do(t, r, http.MethodPost, "/lessons/1/problems/d1_1/run", formType, body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "request body must be")
	})

	t.Run("unknown problem", func(t *testing.T) {
		r := lessonRouter(t, &MockExecutor{})
		rr := do(t, r, http.MethodPost, "/lessons/1/problems/d3_1/run", formType, "code=1")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("no backend", func(t *testing.T) {
		r := lessonRouter(t, nil)
		rr := do(t, r, http.MethodPost, "/lessons/1/problems/d1_1/run", formType, "code=print(1)")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
