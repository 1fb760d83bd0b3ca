package executor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
)

// harnessSource wraps the student's program: it execs the source in a fresh
// empty globals dict with stdout redirected to a call-local StringIO, then
// writes a JSON report after a per-run marker on the real stdout.
//
//go:embed harness.py
var harnessSource string

// TruncationSuffix is appended when output exceeds the configured ceiling.
const TruncationSuffix = "\n... (output truncated)"

// report is the JSON document harness.py prints after the marker.
type report struct {
	Status Status `json:"status"`
	Output string `json:"output"`
}

// NewMarker returns a unique token that separates the harness report from
// anything the program managed to write around the capture (os.write(1, ...)).
//
// xid gives us a 20-char, URL-safe, practically-unique value without a
// crypto/rand round trip per run.
func NewMarker() string {
	return "\x1e" + xid.New().String() + "\x1e"
}

// Command returns the argv that runs code through the harness with the given
// interpreter. The source travels as an argument, which keeps the
// interpreter's stdin free for the program's own input(). The harness clears
// its arguments from sys.argv before the program starts.
//
// maxOutput bounds the captured output inside the interpreter; 0 disables.
func Command(python, code, marker string, maxOutput int) []string {
	return []string{python, "-c", harnessSource, code, marker, strconv.Itoa(max(maxOutput, 0))}
}

// ReportCeiling is how many trailing stdout bytes a backend must keep to
// still hold the whole harness report when output is capped at maxOutput.
// The report JSON-escapes non-ASCII text, up to 12 bytes per character.
// 0 means unbounded.
func ReportCeiling(maxOutput int) int {
	if maxOutput <= 0 {
		return 0
	}
	return 12*(maxOutput+1) + 4096
}

// TailBuffer is an io.Writer keeping only the last Limit bytes written.
// The harness report comes last, so whatever a program sprays on the raw
// stdout before it is what gets dropped. Limit <= 0 keeps everything.
type TailBuffer struct {
	Limit int
	buf   []byte
}

func (b *TailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.Limit > 0 && len(p) > b.Limit {
		p = p[len(p)-b.Limit:]
	}
	b.buf = append(b.buf, p...)
	if b.Limit > 0 && len(b.buf) > 2*b.Limit {
		b.buf = append(b.buf[:0], b.buf[len(b.buf)-b.Limit:]...)
	}
	return n, nil
}

// String returns the retained tail.
func (b *TailBuffer) String() string {
	if b.Limit > 0 && len(b.buf) > b.Limit {
		return string(b.buf[len(b.buf)-b.Limit:])
	}
	return string(b.buf)
}

// HasReport reports whether stdout carries the harness report for marker.
func HasReport(stdout, marker string) bool {
	return strings.Contains(stdout, marker)
}

// Preflight catches inputs that cannot even be handed to an interpreter.
// It returns a non-nil result when the run must not start.
func Preflight(code string) *ExecutionResult {
	if strings.ContainsRune(code, 0) {
		// argv cannot carry NUL bytes; CPython reports the same thing.
		return &ExecutionResult{
			Output: "SyntaxError: source code string cannot contain null bytes",
			Status: StatusError,
		}
	}
	return nil
}

// Interpret turns the raw stdout of a harness run into an ExecutionResult.
//
// Rules:
//   - the LAST occurrence of marker starts the report (program output can't forge it)
//   - success with empty output → Placeholder
//   - no report at all → the interpreter died before reporting (killed, os._exit)
//   - output longer than maxOutput bytes (when > 0) is truncated
func Interpret(stdout, marker string, exitCode, maxOutput int) *ExecutionResult {
	idx := strings.LastIndex(stdout, marker)
	if idx < 0 {
		return &ExecutionResult{
			Output: fmt.Sprintf("ProcessError: interpreter exited with code %d", exitCode),
			Status: StatusError,
		}
	}

	var rep report
	if err := json.Unmarshal([]byte(stdout[idx+len(marker):]), &rep); err != nil {
		return &ExecutionResult{
			Output: fmt.Sprintf("ProcessError: unreadable harness report (exit code %d)", exitCode),
			Status: StatusError,
		}
	}

	if rep.Status != StatusError {
		rep.Status = StatusSuccess
		if rep.Output == "" {
			rep.Output = Placeholder
		}
	}

	return &ExecutionResult{
		Output: Truncate(rep.Output, maxOutput),
		Status: rep.Status,
	}
}

// TimedOut is the result reported when a run exceeds its wall-clock ceiling.
func TimedOut(limit time.Duration) *ExecutionResult {
	return &ExecutionResult{
		Output: fmt.Sprintf("TimeoutError: execution exceeded %s", limit),
		Status: StatusError,
	}
}

// Truncate cuts s to at most max bytes (without splitting a UTF-8 sequence)
// and marks the cut. max <= 0 disables the limit.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + TruncationSuffix
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
