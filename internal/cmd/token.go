package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/config"
	"github.com/precog/precog-cli/internal/iocontext"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Encode and decode hosted add-on connection tokens",
		Long: strings.TrimSpace(`
A connection token packs user, password, host, account id, API key and root
path into one URL-safe base64 string. Use it with 'precog auth login --token'.
`),
	}
	cmd.AddCommand(newTokenEncodeCmd())
	cmd.AddCommand(newTokenDecodeCmd())
	return cmd
}

func newTokenEncodeCmd() *cobra.Command {
	var fields config.TokenFields

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a connection token",
		Example: strings.TrimSpace(`
  precog token encode --user alice@example.com --password s3cret --host beta.precog.com \
    --account 0000000042 --key 8F2A-... --root /0000000042/
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if fields.User == "" || fields.Host == "" || fields.AccountID == "" || fields.APIKey == "" {
				return fmt.Errorf("--user, --host, --account and --key are required")
			}
			token, err := config.EncodeToken(fields)
			if err != nil {
				return err
			}
			if isStructured(cmd) {
				return printOutput(cmd, map[string]string{"token": token})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}

	cmd.Flags().StringVar(&fields.User, "user", "", "Account email")
	cmd.Flags().StringVar(&fields.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&fields.Host, "host", "", "Precog host")
	cmd.Flags().StringVar(&fields.AccountID, "account", "", "Account id")
	cmd.Flags().StringVar(&fields.APIKey, "key", "", "API key")
	cmd.Flags().StringVar(&fields.RootPath, "root", "", "Root path")
	return cmd
}

func newTokenDecodeCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "decode <token|->",
		Short: "Show the fields of a connection token",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			raw, err := iocontext.GetIO(cmd.Context()).ArgOrStdin(args[0])
			if err != nil {
				return err
			}
			fields, err := config.DecodeToken(string(raw))
			if err != nil {
				return err
			}
			if !showSecrets {
				fields.Password = maskToken(fields.Password)
				fields.APIKey = maskToken(fields.APIKey)
			}
			if isStructured(cmd) {
				return printOutput(cmd, fields)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "User:       %s\n", fields.User)
			_, _ = fmt.Fprintf(out, "Password:   %s\n", fields.Password)
			_, _ = fmt.Fprintf(out, "Host:       %s\n", fields.Host)
			_, _ = fmt.Fprintf(out, "Account ID: %s\n", fields.AccountID)
			_, _ = fmt.Fprintf(out, "API key:    %s\n", fields.APIKey)
			_, _ = fmt.Fprintf(out, "Root path:  %s\n", dashIfEmpty(fields.RootPath))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the password and API key unmasked")
	return cmd
}
