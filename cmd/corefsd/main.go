// Command corefsd is a minimal line-oriented JSON host harness for
// pkg/facade, described in SPEC_FULL.md §1. It exists so the core module is
// independently runnable and testable; it is not itself part of the spec'd
// surface, and a real host is expected to call pkg/facade's Go API directly
// rather than shell out to this binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dualpane/corefs/pkg/logging"
)

var rootConfiguration struct {
	configPath string
	logLevel   string
}

var rootCommand = &cobra.Command{
	Use:   "corefsd",
	Short: "Line-oriented JSON harness for the dual-pane file manager core",
	RunE: func(command *cobra.Command, arguments []string) error {
		level, ok := logging.NameToLevel(rootConfiguration.logLevel)
		if !ok {
			return fmt.Errorf("invalid --log-level %q", rootConfiguration.logLevel)
		}
		return serve(os.Stdin, os.Stdout, os.Stderr, rootConfiguration.configPath, level)
	},
}

func init() {
	flags := rootCommand.Flags()
	flags.StringVar(&rootConfiguration.configPath, "config", "", "path to a YAML configuration file (optional)")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "log level: disabled|error|warn|info|debug|trace")
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "corefsd:", err)
		os.Exit(1)
	}
}
