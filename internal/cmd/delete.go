package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/dryrun"
)

func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <path>",
		Aliases: []string{"rm"},
		Short:   "Delete all data stored under a path",
		Example: strings.TrimSpace(`
  precog delete /events --force
  precog delete /events --dry-run
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dest, err := ingestPath(args[0])
			if err != nil {
				return err
			}
			if !force && !dryrun.IsEnabled(cmd.Context()) {
				return fmt.Errorf("--force is required to delete %s (preview with --dry-run)", dest)
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			if err := client.Delete(cmdContext(cmd), dest); err != nil {
				return err
			}
			if dryrun.IsEnabled(cmd.Context()) {
				return nil
			}
			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{"deleted": dest})
			}
			printAction(cmd, "Deleted", "path", dest)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the deletion")
	flagAlias(cmd.Flags(), "force", "yes")
	return cmd
}
