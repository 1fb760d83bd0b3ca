// Package render turns an execution result into what the student sees under
// the editor. Both mappings are pure: same result in, same markup out.
package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/sakif/mathcode/internal/executor"
)

// ErrorHeading flags a failed run.
const ErrorHeading = "❌ 실행 중 오류 발생"

// Inline styles keep the fragment self-contained; it is swapped into the page
// by the editor script without any stylesheet of its own.
const (
	outputStyle = "font-family:monospace;white-space:pre-wrap;background:#f6f8fa;padding:0.75em;border-radius:4px;margin:0"
	errorStyle  = "font-family:monospace;white-space:pre-wrap;color:#c0392b;background:#fdecea;padding:0.75em;border-radius:4px;margin:0"
)

var fragment = template.Must(template.New("result").Parse(
	`{{if .Failed}}<div class="run-result run-error"><h4>{{.Heading}}</h4><pre style="{{.ErrorStyle}}">{{.Output}}</pre></div>` +
		`{{else}}<div class="run-result run-success"><pre style="{{.OutputStyle}}"><code>{{.Output}}</code></pre></div>{{end}}`,
))

type fragmentData struct {
	Failed      bool
	Heading     string
	Output      string
	OutputStyle template.CSS
	ErrorStyle  template.CSS
}

// Render returns the HTML fragment for one run. Output is escaped, so student
// text such as "<b>" is shown literally.
func Render(res *executor.ExecutionResult) template.HTML {
	var sb strings.Builder
	err := fragment.Execute(&sb, fragmentData{
		Failed:      res.Failed(),
		Heading:     ErrorHeading,
		Output:      res.Output,
		OutputStyle: template.CSS(outputStyle),
		ErrorStyle:  template.CSS(errorStyle),
	})
	if err != nil {
		// Writing to a strings.Builder cannot fail; only a broken template could.
		panic(fmt.Sprintf("render: executing fragment: %v", err))
	}
	return template.HTML(sb.String())
}

// Markdown renders the same mapping for exported documents.
func Markdown(res *executor.ExecutionResult) string {
	fence := fenceFor(res.Output)
	var sb strings.Builder
	if res.Failed() {
		sb.WriteString("> **" + ErrorHeading + "**\n\n")
	}
	sb.WriteString(fence)
	if res.Failed() {
		sb.WriteString("text")
	}
	sb.WriteString("\n")
	sb.WriteString(res.Output)
	if !strings.HasSuffix(res.Output, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	sb.WriteString("\n")
	return sb.String()
}

// fenceFor picks a backtick fence longer than any run inside s.
func fenceFor(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
