package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agenttree/config"
)

func (c *cli) initCmd() *cobra.Command {
	var (
		provider  string
		sourceDir string
	)
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default configuration and create the source folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfg := config.Default()
			cfg.Model.Provider = provider
			cfg.Project.SourceDir = sourceDir
			switch provider {
			case config.ProviderOpenAI:
				cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
			case config.ProviderGemini:
				cfg.Model.APIKeyEnv = "GEMINI_API_KEY"
			case config.ProviderScripted:
				cfg.Model.APIKeyEnv = ""
				cfg.Model.Script = []string{`FINISH PROMPT="nothing to do"`}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := c.configPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Join(dir, cfg.Project.SourceDir), 0o755); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", config.ProviderAnthropic, "reasoning service: anthropic, openai, gemini or scripted")
	cmd.Flags().StringVar(&sourceDir, "source-dir", "src", "folder managed by the root coordinator's child")
	return cmd
}
