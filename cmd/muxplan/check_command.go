package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"muxplan/internal/preflight"
	"muxplan/internal/stages"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check external tools, directories, and stage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			chain, err := stages.Build(cfg, cfg.Pipeline.Stages, stages.Dependencies{Logger: logger})
			if err != nil {
				return err
			}
			results = append(results, preflight.CheckStages(cmd.Context(), chain)...)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				fmt.Fprintln(out, sectionHeader("muxplan check", colorize))
				for _, r := range results {
					fmt.Fprintln(out, statusLine(r.Name, checkKind(r), r.Detail, colorize))
				}
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return errors.New("required checks failed: " + strings.Join(names, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func checkKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}
