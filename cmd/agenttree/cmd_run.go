package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agenttree"
	"github.com/hupe1980/agenttree/config"
	"github.com/hupe1980/agenttree/core"
)

func (c *cli) runCmd() *cobra.Command {
	var (
		maxCalls int
		timeout  time.Duration
		follow   bool
	)
	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run the agent tree on a task until the root coordinator finishes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-calls") {
				cfg.Limits.MaxModelCalls = maxCalls
			}
			logger, err := c.logger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			out := cmd.OutOrStdout()
			at, err := agenttree.New(ctx, func(o *agenttree.Options) {
				o.Config = cfg
				o.Logger = logger
				if follow {
					o.OnEvent = printer(out)
				}
			})
			if err != nil {
				return err
			}

			start := time.Now()
			res, err := at.Run(ctx, strings.Join(args, " "))
			if res != nil {
				fmt.Fprintf(out, "%s turns, %s model calls, %d violations in %s\n",
					humanize.Comma(int64(res.Turns)), humanize.Comma(int64(res.ModelCalls)),
					len(res.Violations), time.Since(start).Round(time.Millisecond))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Output)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxCalls, "max-calls", 0, "override limits.max_model_calls (0 is unlimited)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the run after this duration")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "print directives and results as they happen")
	return cmd
}

// printer renders run events one per line. Events arrive from many agent
// workers.
func printer(w io.Writer) func(core.Event) {
	var mu sync.Mutex
	return func(ev core.Event) {
		var line string
		switch ev.Type {
		case core.EventDirective:
			line = ev.Text
		case core.EventFinished:
			line = "finished: " + firstLine(ev.Text)
		case core.EventRecovered, core.EventViolation:
			line = "error: " + ev.Text
		case core.EventActivated:
			line = "activated"
		default:
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "[%s] %s\n", core.DisplayPath(ev.Agent), line)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
