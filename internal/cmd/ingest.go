package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/dryrun"
	"github.com/precog/precog-cli/internal/iocontext"
	"github.com/precog/precog-cli/internal/validation"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ingest",
		Aliases: []string{"in"},
		Short:   "Store data under a path",
		Long: strings.TrimSpace(`
Store records in the Precog filesystem. Paths are relative to the base path
(by default the account id). Every command prints the ingest receipt; records
the server rejected are listed but do not fail the command.
`),
	}

	cmd.AddCommand(newIngestAppendCmd())
	cmd.AddCommand(newIngestAppendAllCmd())
	cmd.AddCommand(newIngestFileCmd())
	cmd.AddCommand(newIngestStringCmd())
	cmd.AddCommand(newIngestFilesCmd())
	return cmd
}

func newIngestAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append <path> <json|->",
		Short: "Append one JSON value",
		Example: strings.TrimSpace(`
  precog ingest append /events '{"user":"alice","clicks":3}'
  echo '{"user":"bob"}' | precog ingest append /events -
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dest, err := ingestPath(args[0])
			if err != nil {
				return err
			}
			value, err := readJSONArg(cmd, args[1])
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			receipt, err := client.Append(cmdContext(cmd), dest, value)
			if err != nil {
				return err
			}
			return printReceipt(cmd, dest, receipt)
		}),
	}
}

func newIngestAppendAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append-all <path> <json-array|->",
		Short: "Append every element of a JSON array",
		Example: strings.TrimSpace(`
  precog ingest append-all /events '[{"n":1},{"n":2}]'
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dest, err := ingestPath(args[0])
			if err != nil {
				return err
			}
			value, err := readJSONArg(cmd, args[1])
			if err != nil {
				return err
			}
			records, ok := value.([]any)
			if !ok {
				return fmt.Errorf("invalid value: append-all expects a JSON array")
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			receipt, err := client.AppendAll(cmdContext(cmd), dest, records)
			if err != nil {
				return err
			}
			return printReceipt(cmd, dest, receipt)
		}),
	}
}

// ingestFlags are shared by the file, string and files commands.
type ingestFlags struct {
	format    string
	delimiter string
	quote     string
	escape    string
	mode      string
	owner     string
	replace   bool
}

func (f *ingestFlags) register(cmd *cobra.Command, formatUsage string) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", formatUsage)
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Field delimiter for delimited text (implies csv)")
	cmd.Flags().StringVar(&f.quote, "quote", "", "Quote character for delimited text")
	cmd.Flags().StringVar(&f.escape, "escape", "", "Escape character for delimited text")
	cmd.Flags().StringVar(&f.mode, "mode", "batch", "Ingest mode: batch|sync|async")
	cmd.Flags().StringVar(&f.owner, "owner", "", "Ingest on behalf of this account id")
	cmd.Flags().BoolVar(&f.replace, "replace", false, "Delete the path before ingesting")
	flagAlias(cmd.Flags(), "delimiter", "delim")
	flagAlias(cmd.Flags(), "replace", "rp")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(api.FormatNames(), cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("mode", cobra.FixedCompletions([]string{"batch", "sync", "async"}, cobra.ShellCompDirectiveNoFileComp))
}

// resolveFormat picks the explicit format, a custom delimited format, or the
// fallback.
func (f *ingestFlags) resolveFormat(fallback api.Format) (api.Format, error) {
	custom := f.delimiter != "" || f.quote != "" || f.escape != ""
	if custom {
		if f.format != "" && !strings.EqualFold(f.format, "csv") {
			return api.Format{}, fmt.Errorf("--delimiter, --quote and --escape only apply to csv, not %q", f.format)
		}
		return api.MakeCSVLike(f.delimiter, f.quote, f.escape), nil
	}
	if f.format == "" {
		return fallback, nil
	}
	return api.LookupFormat(f.format)
}

func (f *ingestFlags) options() (api.IngestOptions, error) {
	mode, err := api.ParseIngestMode(f.mode)
	if err != nil {
		return api.IngestOptions{}, err
	}
	return api.IngestOptions{Mode: mode, Receipt: true, OwnerID: strings.TrimSpace(f.owner)}, nil
}

// custom reports whether the request needs the general Ingest call rather
// than the batch helpers.
func (f *ingestFlags) custom(opts api.IngestOptions) bool {
	return opts.Mode != api.ModeBatch || opts.OwnerID != ""
}

// send ingests data at dest following the flags.
func (f *ingestFlags) send(ctx context.Context, client *api.Client, dest string, format api.Format, data []byte) (*api.Receipt, error) {
	opts, err := f.options()
	if err != nil {
		return nil, err
	}
	if f.custom(opts) {
		if f.replace {
			return client.Upload(ctx, dest, format, data, opts)
		}
		return client.Ingest(ctx, dest, format, data, opts)
	}
	if f.replace {
		return client.UploadString(ctx, dest, format, string(data))
	}
	return client.AppendAllFromString(ctx, dest, format, string(data))
}

func newIngestFileCmd() *cobra.Command {
	var opts ingestFlags

	cmd := &cobra.Command{
		Use:   "file <path> <file>",
		Short: "Ingest the contents of a file",
		Example: strings.TrimSpace(`
  # Format from the extension (.csv, .tsv, .ssv, .jsonl, otherwise json)
  precog ingest file /sales sales.csv

  # Replace what is stored at /sales
  precog ingest file /sales sales.json --replace

  # Pipe-delimited text, processed synchronously
  precog ingest file /logs access.txt --delimiter '|' --mode sync
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dest, err := ingestPath(args[0])
			if err != nil {
				return err
			}
			filename := args[1]
			format, err := opts.resolveFormat(api.FormatForFile(filename))
			if err != nil {
				return err
			}
			ingestOpts, err := opts.options()
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}

			ctx := cmdContext(cmd)
			var receipt *api.Receipt
			switch {
			case opts.custom(ingestOpts):
				data, err := readFile(cmd, filename)
				if err != nil {
					return err
				}
				receipt, err = opts.send(ctx, client, dest, format, data)
				if err != nil {
					return err
				}
			case opts.replace:
				receipt, err = client.UploadFile(ctx, dest, format, filename)
			default:
				receipt, err = client.AppendAllFromFile(ctx, dest, format, filename)
			}
			if err != nil {
				return err
			}
			return printReceipt(cmd, dest, receipt)
		}),
	}

	opts.register(cmd, "Payload format (default from the file extension)")
	return cmd
}

func newIngestStringCmd() *cobra.Command {
	var opts ingestFlags

	cmd := &cobra.Command{
		Use:   "string <path> <text|->",
		Short: "Ingest text given on the command line or stdin",
		Example: strings.TrimSpace(`
  precog ingest string /points $'x,y\n1,2\n3,4' --format csv
  cat events.jsonl | precog ingest string /events - --format jsonstream --replace
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dest, err := ingestPath(args[0])
			if err != nil {
				return err
			}
			if opts.format == "" && opts.delimiter == "" && opts.quote == "" && opts.escape == "" {
				return fmt.Errorf("--format is required")
			}
			format, err := opts.resolveFormat(api.FormatJSON)
			if err != nil {
				return err
			}
			data, err := iocontext.GetIO(cmd.Context()).ArgOrStdin(args[1])
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}
			receipt, err := opts.send(cmdContext(cmd), client, dest, format, data)
			if err != nil {
				return err
			}
			return printReceipt(cmd, dest, receipt)
		}),
	}

	opts.register(cmd, "Payload format: "+strings.Join(formatRegistryNames(), "|"))
	return cmd
}

func newIngestFilesCmd() *cobra.Command {
	var (
		opts        ingestFlags
		concurrency int64
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "files <dir-path> <file>...",
		Short: "Ingest several files concurrently",
		Long: strings.TrimSpace(`
Ingest each file under <dir-path>/<name>, where <name> is the file name
without its extension. Formats are taken from the extensions unless --format
is given. Failures are reported per file; the command exits non-zero if any
file failed.
`),
		Example: strings.TrimSpace(`
  precog ingest files /imports jan.csv feb.csv mar.csv --concurrency 2
`),
		Args: cobra.MinimumNArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			dir, err := ingestPath(args[0])
			if err != nil {
				return err
			}
			files := args[1:]
			if _, err := opts.options(); err != nil {
				return err
			}
			if _, err := opts.resolveFormat(api.FormatJSON); err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}

			showProgress := progress && !isStructured(cmd) && !flags.Quiet && !dryrun.IsEnabled(cmd.Context())
			errOut := iocontext.GetIO(cmd.Context()).ErrOut
			results := runBulkOperation(cmdContext(cmd), files, concurrency, showProgress, errOut,
				func(ctx context.Context, filename string) (*fileReceipt, error) {
					format, err := opts.resolveFormat(api.FormatForFile(filename))
					if err != nil {
						return nil, err
					}
					data, err := readFile(cmd, filename)
					if err != nil {
						return nil, err
					}
					dest := api.JoinPath(dir, fileStem(filename))
					receipt, err := opts.send(ctx, client, dest, format, data)
					if err != nil {
						return nil, err
					}
					return &fileReceipt{Path: dest, Format: format.Name(), Receipt: receipt}, nil
				})

			success, failure := countResults(results)
			if dryrun.IsEnabled(cmd.Context()) {
				return nil
			}
			if isStructured(cmd) {
				if err := printOutput(cmd, bulkItems(results)); err != nil {
					return err
				}
			} else if !flags.Quiet {
				f := newFormatter(cmd)
				f.StartTable([]string{"FILE", "PATH", "INGESTED", "STATUS"})
				for _, r := range results {
					if r.Success {
						fr := r.Data.(*fileReceipt)
						f.Row(r.Key, fr.Path, fmt.Sprintf("%d", fr.Receipt.Ingested), receiptStatus(fr.Receipt))
					} else {
						f.Row(r.Key, "-", "-", "error: "+r.Error.Error())
					}
				}
				if err := f.EndTable(); err != nil {
					return err
				}
				printNotice(cmd, "%d succeeded, %d failed", success, failure)
			}
			if failure > 0 {
				return fmt.Errorf("%d of %d files failed", failure, len(files))
			}
			return nil
		}),
	}

	opts.register(cmd, "Payload format for every file (default from each extension)")
	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Maximum concurrent uploads")
	cmd.Flags().BoolVar(&progress, "progress", true, "Show progress on stderr")
	flagAlias(cmd.Flags(), "concurrency", "cc")
	return cmd
}

// fileReceipt is the per-file result of ingest files.
type fileReceipt struct {
	Path    string       `json:"path"`
	Format  string       `json:"format"`
	Receipt *api.Receipt `json:"receipt"`
}

func fileStem(filename string) string {
	base := filepath.Base(filename)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}

func ingestPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if err := validation.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// readJSONArg decodes a JSON argument, reading stdin for "-".
func readJSONArg(cmd *cobra.Command, arg string) (any, error) {
	data, err := iocontext.GetIO(cmd.Context()).ArgOrStdin(arg)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid value: not JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid value: expected a single JSON value")
	}
	return v, nil
}

// readFile reads filename, or stdin for "-".
func readFile(cmd *cobra.Command, filename string) ([]byte, error) {
	if filename == "-" {
		return iocontext.GetIO(cmd.Context()).ArgOrStdin("-")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

func receiptStatus(r *api.Receipt) string {
	if r == nil {
		return "accepted"
	}
	if len(r.Errors) > 0 || r.Failed > 0 {
		return fmt.Sprintf("%d errors", max(len(r.Errors), r.Failed))
	}
	if r.Raw == nil {
		return "accepted"
	}
	return "ok"
}

// printReceipt reports an ingest receipt. Per-record errors go to stderr
// but are not a failure.
func printReceipt(cmd *cobra.Command, dest string, receipt *api.Receipt) error {
	if dryrun.IsEnabled(cmd.Context()) {
		return nil
	}
	if isStructured(cmd) {
		// Print the server's receipt as sent, including fields Receipt does not model.
		var v any = receipt
		if receipt.Raw != nil {
			var raw any
			if err := json.Unmarshal(receipt.Raw, &raw); err == nil {
				v = raw
			}
		}
		return printOutput(cmd, v)
	}
	if flags.Quiet {
		return nil
	}
	out := cmd.OutOrStdout()
	if receipt.Raw == nil {
		_, _ = fmt.Fprintf(out, "Accepted %s\n", dest)
		return nil
	}
	line := fmt.Sprintf("Ingested %d", receipt.Ingested)
	if receipt.Total > 0 {
		line += fmt.Sprintf(" of %d", receipt.Total)
	}
	line += " records into " + dest
	if receipt.Failed > 0 || receipt.Skipped > 0 {
		line += fmt.Sprintf(" (%d failed, %d skipped)", receipt.Failed, receipt.Skipped)
	}
	_, _ = fmt.Fprintln(out, line)
	for _, e := range receipt.Errors {
		printNotice(cmd, "  error: %s", e.Text)
	}
	return nil
}
