// Command agenttree runs a tree of language-model agents over a source
// folder: a root coordinator, one directory manager per folder, one file
// coder per file and ephemeral testers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hupe1980/agenttree/config"
	"github.com/hupe1980/agenttree/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds the global flags and the logger shared by all subcommands.
type cli struct {
	configPath string
	verbose    bool

	zl *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "agenttree",
		Short: "Build a source tree with a hierarchy of file and folder agents",
		Long: `agenttree mirrors a project's source folder with a tree of agents.

The root coordinator owns README.md and delegates to the manager of the
source folder. Managers own a folder README and delegate to the agents of
their direct children. File coders own exactly one file and may spawn an
ephemeral tester. Agents act only through one directive per turn.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.zl != nil {
				_ = c.zl.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.FileName, "path to the project configuration")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.initCmd(), c.runCmd(), c.parseCmd())
	return root
}

// logger builds the zap-backed logger configured by cfg.
func (c *cli) logger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if c.verbose {
		level = logging.LogLevelDebug
	}
	zl, err := logging.NewZapLogger(level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.zl = zl
	return logging.NewZapAdapter(zl), nil
}
