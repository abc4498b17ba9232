package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"muxplan/internal/stages"
)

func newStagesCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "stages [name...]",
		Short:       "List the registered stages",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var unknown []string
			for _, name := range args {
				if !stages.Known(name) {
					unknown = append(unknown, name)
				}
			}
			if len(unknown) > 0 {
				return fmt.Errorf("unknown stage(s): %s (run `muxplan stages` for the list)", strings.Join(unknown, ", "))
			}

			descriptions := selectStages(stages.Describe(), args)
			if jsonOutput {
				type entry struct {
					Name    string `json:"name"`
					Summary string `json:"summary"`
				}
				out := make([]entry, 0, len(descriptions))
				for _, d := range descriptions {
					out = append(out, entry{Name: d.Name, Summary: d.Summary})
				}
				return writeJSON(cmd, out)
			}
			rows := make([][]string, 0, len(descriptions))
			for _, d := range descriptions {
				rows = append(rows, []string{d.Name, d.Summary})
			}
			writeTable(cmd.OutOrStdout(), cols("Stage", "Description"), rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

// selectStages keeps the descriptions named in names. No names keeps all.
func selectStages(all []stages.Description, names []string) []stages.Description {
	if len(names) == 0 {
		return all
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[strings.ToLower(strings.TrimSpace(name))] = true
	}
	var out []stages.Description
	for _, d := range all {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out
}
