package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/await"
	"github.com/precog/precog-cli/internal/dryrun"
	"github.com/precog/precog-cli/internal/iocontext"
	"github.com/precog/precog-cli/internal/validation"
)

func newQueryCmd() *cobra.Command {
	var (
		path         string
		detailed     bool
		waitFor      string
		waitTimeout  time.Duration
		waitInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "query <quirrel|->",
		Aliases: []string{"q"},
		Short:   "Run a Quirrel query",
		Long: strings.TrimSpace(`
Evaluate a Quirrel query rooted at --path (relative to the base path).

Errors reported by the analytics service fail the command; warnings are
logged to stderr. With --detailed the full envelope (data, errors, warnings)
is printed and nothing is escalated.

--wait-for polls until the query returns the given JSON value, which helps
when reading back freshly ingested data.
`),
		Example: strings.TrimSpace(`
  precog query 'count(//events)'
  precog query '//events' --json --jq '.[].user'
  precog query 'count(//events)' --wait-for 3 --wait-timeout 1m
  precog query 'load("/bad")' --detailed -o yaml
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			raw, err := iocontext.GetIO(cmd.Context()).ArgOrStdin(args[0])
			if err != nil {
				return err
			}
			q := strings.TrimSpace(string(raw))
			if err := validation.ValidateQuery(q); err != nil {
				return err
			}
			if waitFor != "" && detailed {
				return fmt.Errorf("--wait-for conflicts with --detailed")
			}
			if waitFor != "" && dryrun.IsEnabled(cmd.Context()) {
				return fmt.Errorf("--wait-for conflicts with --dry-run")
			}

			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)

			if detailed {
				env, err := client.QueryDetailed(ctx, q, path)
				if err != nil {
					return err
				}
				if dryrun.IsEnabled(cmd.Context()) {
					return nil
				}
				return printEnvelope(cmd, env)
			}

			var data []any
			if waitFor != "" {
				expected, err := await.ParseExpected(waitFor)
				if err != nil {
					return err
				}
				data, err = await.QueryUntil(ctx, client, q, path, expected, await.Options{
					Interval: waitInterval,
					Timeout:  waitTimeout,
				})
				if err != nil {
					return err
				}
			} else {
				data, err = client.Query(ctx, q, path)
				if err != nil {
					return err
				}
			}
			if dryrun.IsEnabled(cmd.Context()) {
				return nil
			}
			return printRows(cmd, data)
		}),
	}

	cmd.Flags().StringVar(&path, "path", "", "Path the query is evaluated against")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Print the full response envelope")
	cmd.Flags().StringVar(&waitFor, "wait-for", "", "Poll until the result equals this JSON value")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", await.DefaultTimeout, "Give up waiting after this long")
	cmd.Flags().DurationVar(&waitInterval, "wait-interval", await.DefaultInterval, "Delay between polls")
	flagAlias(cmd.Flags(), "detailed", "dt")
	flagAlias(cmd.Flags(), "wait-for", "wf")
	return cmd
}

// printRows writes query data: one compact JSON value per line in text mode.
func printRows(cmd *cobra.Command, data []any) error {
	if isStructured(cmd) {
		return printOutput(cmd, data)
	}
	out := cmd.OutOrStdout()
	for _, row := range data {
		b, err := json.Marshal(row)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(b))
	}
	return nil
}

func printEnvelope(cmd *cobra.Command, env *api.QueryEnvelope) error {
	if isStructured(cmd) {
		return printOutput(cmd, env)
	}
	if err := printRows(cmd, env.Data); err != nil {
		return err
	}
	errOut := iocontext.GetIO(cmd.Context()).ErrOut
	section := func(title string, msgs []api.Message) {
		if len(msgs) == 0 {
			return
		}
		_, _ = fmt.Fprintf(errOut, "%s:\n", title)
		for _, m := range msgs {
			_, _ = fmt.Fprintf(errOut, "  - %s\n", m.Text)
		}
	}
	section("Errors", env.Errors)
	section("Server errors", env.ServerErrors)
	section("Warnings", env.Warnings)
	section("Server warnings", env.ServerWarnings)
	return nil
}
