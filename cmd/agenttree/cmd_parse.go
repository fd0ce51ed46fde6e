package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/directive"
)

func (c *cli) parseCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "parse [text|-]",
		Short: "Parse a response with an agent kind's grammar and print the canonical directive",
		Long: `Parses one reasoning-service response the way the engine would for an
agent of the given kind and re-renders it in canonical form. Use "-" to
read the response from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseKind(profile)
			if err != nil {
				return err
			}
			text := args[0]
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}
			p := directive.ProfileFor(kind)
			d, err := directive.Parse(text, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), directive.Render(d))
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "directory-manager", "agent kind: root, manager, coder or tester")
	return cmd
}
