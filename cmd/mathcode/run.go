package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/mathcode/internal/executor"
	"github.com/sakif/mathcode/internal/executor/backend"
	"github.com/sakif/mathcode/internal/render"
)

var (
	stdinFileFlag string
	markdownFlag  bool
)

// errProgramFailed makes the process exit non-zero after a faulting run;
// the fault itself has already been printed.
var errProgramFailed = errors.New("program raised an error")

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "Run a Python file in the sandbox",
	Long: `Run a Python source file (or standard input with "-") exactly as a lesson
page would, and print what the student would see.

Examples:
  mathcode run solution.py
  echo 'print(1 + 2)' | mathcode run - --backend local
  mathcode run sum.py --stdin numbers.txt --markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&stdinFileFlag, "stdin", "", "file fed to the program's standard input")
	runCmd.Flags().BoolVar(&markdownFlag, "markdown", false, "print the result as Markdown")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	code, err := readSource(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	var stdin string
	if stdinFileFlag != "" {
		data, err := os.ReadFile(stdinFileFlag)
		if err != nil {
			return fmt.Errorf("reading stdin file: %w", err)
		}
		stdin = string(data)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	b, err := backend.Open(cfg.Executor, logger)
	if err != nil {
		return fmt.Errorf("opening execution backend: %w", err)
	}
	defer b.Close()

	res, err := b.Execute(cmd.Context(), executor.ExecutionRequest{Code: code, Stdin: stdin})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case markdownFlag:
		fmt.Fprint(out, render.Markdown(res))
	case res.Failed():
		fmt.Fprintln(cmd.ErrOrStderr(), render.ErrorHeading)
		fmt.Fprintln(cmd.ErrOrStderr(), res.Output)
	default:
		fmt.Fprint(out, res.Output)
	}

	if res.Failed() {
		return errProgramFailed
	}
	return nil
}

func readSource(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}
