// Command mathcode serves the lesson site and runs student Python code.
//
//	mathcode                      start the server (same as "mathcode serve")
//	mathcode run solution.py      run a file through the configured sandbox
//	mathcode hash-password        print a bcrypt hash for auth.instructor_password_hash
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/mathcode/internal/config"
)

var (
	configFlag  string
	backendFlag string
)

var rootCmd = &cobra.Command{
	Use:   "mathcode",
	Short: "mathcode - sequences course with a Python code sandbox",
	Long: `mathcode serves the lesson pages of the sequences course. Every problem
has an editor whose code runs in an isolated Python sandbox (a docker
container, or the host interpreter when docker is unavailable).

Configuration comes from mathcode.yaml and MATHCODE_* environment variables;
flags override both.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: ./mathcode.yaml or $HOME/.mathcode/mathcode.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "execution backend: auto, docker or local (overrides config)")
}

// loadConfig reads the config and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Executor.Backend = backendFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
