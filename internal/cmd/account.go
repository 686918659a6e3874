package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/cache"
	"github.com/precog/precog-cli/internal/dryrun"
	"github.com/precog/precog-cli/internal/validation"
)

const accountSearchResource = "account-search"

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts", "acct"},
		Short:   "Search, create and inspect Precog accounts",
	}

	cmd.AddCommand(newAccountSearchCmd())
	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountDetailsCmd())
	return cmd
}

func newAccountSearchCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "search <email>",
		Short: "Find the accounts registered to an email",
		Example: strings.TrimSpace(`
  # Look up an account id
  precog account search alice@example.com

  # Bypass the local cache
  precog account search alice@example.com --refresh --json
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			if err := validation.ValidateEmail(email); err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}

			accounts, err := searchAccounts(cmdContext(cmd), client, email, refresh || dryrun.IsEnabled(cmd.Context()))
			if err != nil {
				return err
			}
			if dryrun.IsEnabled(cmd.Context()) {
				return nil
			}
			return printAccounts(cmd, accounts)
		}),
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore cached results and query the server")
	flagAlias(cmd.Flags(), "refresh", "rf")
	return cmd
}

// searchAccounts runs SearchAccount through the lookup cache. Empty results
// are not cached so a freshly created account is found right away.
func searchAccounts(ctx context.Context, client *api.Client, email string, bypass bool) ([]api.Account, error) {
	key := cache.Key(accountSearchResource, client.BaseURL(), strings.ToLower(email))

	var store cache.Store
	if !bypass && !cache.Disabled() {
		s, err := openCache()
		if err != nil {
			slog.Debug("cache unavailable", "error", err)
		} else {
			store = s
			defer closeCache(store)
			var cached []api.Account
			if store.Get(ctx, key, &cached) {
				slog.Debug("account search cache hit", "key", key)
				return cached, nil
			}
		}
	}

	accounts, err := client.SearchAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if store != nil && len(accounts) > 0 {
		store.Put(ctx, key, accounts)
	}
	return accounts, nil
}

// forgetAccountSearch drops the cached search result for email.
func forgetAccountSearch(ctx context.Context, client *api.Client, email string) {
	if cache.Disabled() {
		return
	}
	store, err := openCache()
	if err != nil {
		return
	}
	defer closeCache(store)
	store.Delete(ctx, cache.Key(accountSearchResource, client.BaseURL(), strings.ToLower(email)))
}

func printAccounts(cmd *cobra.Command, accounts []api.Account) error {
	f := newFormatter(cmd)
	if !f.StartTable([]string{"ACCOUNT ID", "EMAIL", "ROOT PATH"}) {
		return f.Output(accounts)
	}
	if len(accounts) == 0 {
		f.Empty("No accounts found")
		return f.EndTable()
	}
	for _, a := range accounts {
		f.Row(a.AccountID, dashIfEmpty(a.Email), dashIfEmpty(a.RootPath))
	}
	return f.EndTable()
}

func newAccountCreateCmd() *cobra.Command {
	var (
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create an account (returns the existing id if the email is taken)",
		Example: strings.TrimSpace(`
  precog account create alice@example.com --password 's3cret'
  printf 's3cret\n' | precog account create alice@example.com --password-stdin
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			if err := validation.ValidateEmail(email); err != nil {
				return err
			}
			secret, err := readSecret(cmd, password, passwordStdin, "password")
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}

			account, err := client.CreateAccount(cmdContext(cmd), email, secret)
			if err != nil {
				return err
			}
			if dryrun.IsEnabled(cmd.Context()) {
				return nil
			}
			forgetAccountSearch(cmdContext(cmd), client, email)

			if isStructured(cmd) {
				return printOutput(cmd, account)
			}
			printAction(cmd, "Created", "account", account.AccountID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	flagAlias(cmd.Flags(), "password", "pw")
	return cmd
}

func newAccountDetailsCmd() *cobra.Command {
	var (
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "details <email>",
		Short: "Show an account, including its API key",
		Long: strings.TrimSpace(`
Fetch account details with Basic authentication. Without the global
--account-id flag the account is looked up by email first.
`),
		Example: strings.TrimSpace(`
  precog account details alice@example.com --password 's3cret'
  precog account details alice@example.com --password 's3cret' --account-id 0000000042 --json
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			if err := validation.ValidateEmail(email); err != nil {
				return err
			}
			secret, err := readSecret(cmd, password, passwordStdin, "password")
			if err != nil {
				return err
			}
			client, err := getClient(cmd)
			if err != nil {
				return err
			}

			account, err := fetchAccountDetails(cmd, client, email, secret, flags.AccountID)
			if err != nil {
				return err
			}
			if dryrun.IsEnabled(cmd.Context()) {
				return nil
			}

			if isStructured(cmd) {
				return printOutput(cmd, account)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Account ID: %s\n", account.AccountID)
			_, _ = fmt.Fprintf(out, "Email:      %s\n", dashIfEmpty(account.Email))
			_, _ = fmt.Fprintf(out, "API key:    %s\n", dashIfEmpty(account.APIKey))
			_, _ = fmt.Fprintf(out, "Root path:  %s\n", dashIfEmpty(account.RootPath))
			if account.Created != "" {
				_, _ = fmt.Fprintf(out, "Created:    %s\n", account.Created)
			}
			if account.Plan != nil && account.Plan.Type != "" {
				_, _ = fmt.Fprintf(out, "Plan:       %s\n", account.Plan.Type)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	flagAlias(cmd.Flags(), "password", "pw")
	return cmd
}

// fetchAccountDetails resolves the account id by search when it is not given,
// then fetches the details with Basic auth.
func fetchAccountDetails(cmd *cobra.Command, client *api.Client, email, password, accountID string) (*api.Account, error) {
	ctx := cmdContext(cmd)
	accountID = strings.TrimSpace(accountID)
	if accountID == "" && !dryrun.IsEnabled(ctx) {
		accounts, err := searchAccounts(ctx, client, email, false)
		if err != nil {
			return nil, err
		}
		switch len(accounts) {
		case 0:
			return nil, fmt.Errorf("no account found for %s", email)
		case 1:
			accountID = accounts[0].AccountID
		default:
			ids := make([]string, 0, len(accounts))
			for _, a := range accounts {
				ids = append(ids, a.AccountID)
			}
			return nil, fmt.Errorf("%s has %d accounts (%s); pass --account-id", email, len(accounts), strings.Join(ids, ", "))
		}
	}
	if accountID == "" {
		accountID = "<account-id>"
	}
	return client.AccountDetails(ctx, email, password, accountID)
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
