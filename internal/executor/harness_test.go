package executor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarker_Unique(t *testing.T) {
	a, b := NewMarker(), NewMarker()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "\x1e"))
}

func TestCommand(t *testing.T) {
	argv := Command("python3", "print(1)", "M", 1024)
	require.Len(t, argv, 6)
	assert.Equal(t, "python3", argv[0])
	assert.Equal(t, "-c", argv[1])
	assert.Contains(t, argv[2], "redirect_stdout")
	assert.Equal(t, "print(1)", argv[3])
	assert.Equal(t, "M", argv[4])
	assert.Equal(t, "1024", argv[5])
	assert.Contains(t, argv[2], "del sys.argv[1:]")

	assert.Equal(t, "0", Command("python3", "", "M", -1)[5])
}

func TestTailBuffer(t *testing.T) {
	b := &TailBuffer{Limit: 8}
	for _, chunk := range []string{"abc", "defghij", "klmnopqrstu", "vw"} {
		n, err := b.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, "pqrstuvw", b.String())

	unbounded := &TailBuffer{}
	unbounded.Write([]byte(strings.Repeat("x", 100)))
	assert.Len(t, unbounded.String(), 100)
}

func TestReportCeiling(t *testing.T) {
	assert.Equal(t, 0, ReportCeiling(0))
	// A full report of escaped non-ASCII output still fits.
	assert.Greater(t, ReportCeiling(10), 12*11)
}

func TestHasReport(t *testing.T) {
	assert.True(t, HasReport("noise\n\x1eM\x1e{}", "\x1eM\x1e"))
	assert.False(t, HasReport("noise", "\x1eM\x1e"))
}

func TestPreflight(t *testing.T) {
	assert.Nil(t, Preflight("print('ok')"))
	assert.Nil(t, Preflight(""))

	res := Preflight("print(1)\x00")
	require.NotNil(t, res)
	assert.Equal(t, StatusError, res.Status)
	assert.True(t, strings.HasPrefix(res.Output, "SyntaxError: "))
}

func TestInterpret(t *testing.T) {
	const marker = "\x1eMARK\x1e"

	tests := []struct {
		name       string
		stdout     string
		exitCode   int
		maxOutput  int
		wantOutput string
		wantStatus Status
	}{
		{
			name:       "printed text is returned verbatim",
			stdout:     "\n" + marker + `{"status":"success","output":"Hello\n"}`,
			wantOutput: "Hello\n",
			wantStatus: StatusSuccess,
		},
		{
			name:       "no output uses placeholder",
			stdout:     "\n" + marker + `{"status":"success","output":""}`,
			wantOutput: Placeholder,
			wantStatus: StatusSuccess,
		},
		{
			name:       "fault kind and message",
			stdout:     "\n" + marker + `{"status":"error","output":"ZeroDivisionError: division by zero"}`,
			wantOutput: "ZeroDivisionError: division by zero",
			wantStatus: StatusError,
		},
		{
			name:       "text written around the capture is ignored",
			stdout:     "leak\n" + marker + "fake\n" + marker + `{"status":"success","output":"6\n"}`,
			wantOutput: "6\n",
			wantStatus: StatusSuccess,
		},
		{
			name:       "missing report",
			stdout:     "partial",
			exitCode:   137,
			wantOutput: "ProcessError: interpreter exited with code 137",
			wantStatus: StatusError,
		},
		{
			name:       "garbled report",
			stdout:     marker + `{"status":`,
			exitCode:   1,
			wantOutput: "ProcessError: unreadable harness report (exit code 1)",
			wantStatus: StatusError,
		},
		{
			name:       "long output is truncated",
			stdout:     marker + `{"status":"success","output":"abcdefgh"}`,
			maxOutput:  4,
			wantOutput: "abcd" + TruncationSuffix,
			wantStatus: StatusSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Interpret(tt.stdout, marker, tt.exitCode, tt.maxOutput)
			assert.Equal(t, tt.wantOutput, res.Output)
			assert.Equal(t, tt.wantStatus, res.Status)
		})
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	// "수열" is 6 bytes; cutting at 4 must not split the second rune.
	got := Truncate("수열", 4)
	assert.Equal(t, "수"+TruncationSuffix, got)
	assert.Equal(t, "수열", Truncate("수열", 0))
}

func TestTimedOut(t *testing.T) {
	res := TimedOut(5 * time.Second)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "TimeoutError: execution exceeded 5s", res.Output)
	assert.True(t, res.Failed())
}
