package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/debug"
	"github.com/precog/precog-cli/internal/dryrun"
	"github.com/precog/precog-cli/internal/iocontext"
	"github.com/precog/precog-cli/internal/outfmt"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output  string
	JSON    bool
	JQ      string
	Compact bool
	Debug   bool
	DryRun  bool
	Quiet   bool
	Timeout time.Duration

	Profile   string
	Host      string
	Port      int
	TLS       bool
	APIKey    string
	AccountID string
	BasePath  string
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call; tests rely on it.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:  defaultOutput(),
		Timeout: api.DefaultTimeout,
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv("PRECOG_OUTPUT")); value != "" {
		return value
	}
	return "text"
}

// dotEnvFile is loaded from the working directory when present.
var dotEnvFile = ".env"

// loadDotEnv loads PRECOG_* settings from ./.env. Variables already set in
// the environment are not overwritten, so explicit exports win.
func loadDotEnv() {
	if _, err := os.Stat(dotEnvFile); err != nil {
		return
	}
	_ = godotenv.Load(dotEnvFile)
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	loadDotEnv()
	flags = defaultFlags()

	root := &cobra.Command{
		Use:                "precog",
		Short:              "Command-line client for the Precog analytics platform",
		Long:               "Manage Precog accounts, ingest and delete data, and run Quirrel queries.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError provides did-you-mean
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			if flags.JQ != "" && !flagOrAliasChanged(cmd, "output") && !flags.JSON {
				flags.Output = "json"
			}
			mode, err := outfmt.Parse(strings.TrimSpace(flags.Output))
			if err != nil {
				return err
			}
			if flags.JQ != "" && mode == outfmt.Text {
				return fmt.Errorf("--jq requires --output json, jsonl or yaml")
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)
			if flags.JQ != "" {
				ctx = outfmt.WithQuery(ctx, flags.JQ)
			}

			ioStreams := iocontext.GetIO(ctx)
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debugEnabled := flags.Debug || debug.FromEnv()
			debug.SetupLoggerTo(ioStreams.ErrOut, debugEnabled)
			ctx = debug.WithDebug(ctx, debugEnabled)

			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	if streams := iocontext.GetIO(ctx); streams != nil {
		root.SetOut(streams.Out)
		root.SetErr(streams.ErrOut)
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|yaml (env PRECOG_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVar(&flags.JQ, "jq", "", "jq expression to filter structured output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging (env PRECOG_DEBUG)")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Print requests instead of sending them")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	pf.StringVarP(&flags.Profile, "profile", "p", "", "Stored profile to use (env PRECOG_PROFILE)")
	pf.StringVar(&flags.Host, "host", "", "Precog host (env PRECOG_HOST, default "+api.DefaultHost+")")
	pf.IntVar(&flags.Port, "port", 0, "Precog port (env PRECOG_PORT, default 443)")
	pf.BoolVar(&flags.TLS, "tls", false, "Use HTTPS (env PRECOG_TLS; always on for port 443)")
	pf.StringVar(&flags.APIKey, "api-key", "", "API key (env PRECOG_API_KEY)")
	pf.StringVar(&flags.AccountID, "account-id", "", "Account id (env PRECOG_ACCOUNT_ID)")
	pf.StringVar(&flags.BasePath, "base-path", "", "Path prefix for ingest and query (env PRECOG_BASE_PATH, default account id)")

	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "output", "out")
	flagAlias(pf, "api-key", "key")

	root.AddCommand(newAccountCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newProfilesCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		parent := root
		if targetCmd != nil {
			parent = targetCmd
		}
		if unknown := extractQuoted(msg); unknown != "" {
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		cmd := root
		if targetCmd != nil {
			cmd = targetCmd
		}
		seen := make(map[string]bool)
		var names []string
		visit := func(f *pflag.Flag) {
			if f.Hidden || seen[f.Name] {
				return
			}
			seen[f.Name] = true
			names = append(names, "--"+f.Name)
		}
		cmd.Flags().VisitAll(visit)
		cmd.InheritedFlags().VisitAll(visit)

		helpCmd := strings.TrimSpace(cmd.CommandPath()) + " --help"
		if suggestion := suggestFlag(unknown, names); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name such as "--foo" or "-f" from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimRight(rest, ".,;:!?\"'")
	if len(rest) < 2 {
		return ""
	}
	return rest
}
