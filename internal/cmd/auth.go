package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/config"
	"github.com/precog/precog-cli/internal/dryrun"
	"github.com/precog/precog-cli/internal/validation"
)

// Keys read from an --env-file besides the connection variables.
const (
	envEmail    = "PRECOG_EMAIL"
	envPassword = "PRECOG_PASSWORD"
	envToken    = "PRECOG_TOKEN"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
		token         string
		envFile       string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save account credentials to the OS keychain",
		Long: strings.TrimSpace(`
Save Precog credentials securely to your OS keychain.

With --email and --password the account is looked up, its details (including
the master API key) are fetched with Basic auth, and the result is stored as
a profile. A hosted add-on token (--token) or an existing API key and account
id (--api-key with --account-id) are stored without contacting the server.

Connection settings come from --host, --port and --tls (or PRECOG_HOST,
PRECOG_PORT and PRECOG_TLS) and are saved with the profile.
`),
		Example: strings.TrimSpace(`
  # Look up the account and store its API key
  precog auth login --email alice@example.com --password 's3cret'

  # Against a local test server, saved as profile "local"
  precog auth login --email alice@example.com --password-stdin --host localhost --port 8080 --profile local

  # Store a hosted add-on token
  precog auth login --token "$PRECOG_ADDON_TOKEN"

  # Load PRECOG_* values from a .env file
  precog auth login --env-file .env.precog
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profileName := strings.TrimSpace(flags.Profile)

			if envFile != "" {
				envVars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				applyAuthEnvFileRuntimeVars(envVars)
				if email == "" {
					email = strings.TrimSpace(envVars[envEmail])
				}
				if password == "" && !passwordStdin {
					password = envVars[envPassword]
				}
				if token == "" {
					token = strings.TrimSpace(envVars[envToken])
				}
				if profileName == "" {
					profileName = strings.TrimSpace(envVars[config.EnvProfile])
				}
			}
			if profileName == "" {
				profileName = "default"
			}

			factory := newClientFactory(cmd)
			overrides := factory.overrides()
			overrides.Profile = ""
			cfg, err := config.ResolveEnv(overrides)
			if err != nil {
				return err
			}

			var profile config.Profile
			switch {
			case token != "":
				fields, err := config.DecodeToken(token)
				if err != nil {
					return err
				}
				profile = fields.Profile()

			case email == "" && cfg.APIKey != "":
				if cfg.AccountID == "" {
					return fmt.Errorf("--account-id is required with --api-key")
				}
				profile = profileFromConfig(cfg, "")

			default:
				if email == "" {
					return fmt.Errorf("--email is required (or use --token or --api-key)")
				}
				if err := validation.ValidateEmail(email); err != nil {
					return err
				}
				secret, err := readSecret(cmd, password, passwordStdin, "password")
				if err != nil {
					return err
				}
				cfg.APIKey = ""
				client := factory.newClient(cfg)
				account, err := fetchAccountDetails(cmd, client, email, secret, cfg.AccountID)
				if err != nil {
					return err
				}
				if dryrun.IsEnabled(cmd.Context()) {
					return nil
				}
				if account.APIKey == "" {
					return fmt.Errorf("account %s returned no API key", account.AccountID)
				}
				cfg.APIKey = account.APIKey
				cfg.AccountID = account.AccountID
				profile = profileFromConfig(cfg, email)
			}

			if err := config.SaveProfile(profileName, profile); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{
					"profile":    profileName,
					"host":       hostOrDefault(profile.Host),
					"account_id": profile.AccountID,
					"email":      profile.Email,
					"api_key":    maskToken(profile.APIKey),
				})
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authentication credentials saved successfully!")
			_, _ = fmt.Fprintf(out, "  Host: %s\n", hostOrDefault(profile.Host))
			_, _ = fmt.Fprintf(out, "  Account ID: %s\n", profile.AccountID)
			if profileName != "default" {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", profileName)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&token, "token", "", "Hosted add-on connection token")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load PRECOG_* (and PRECOG_KEYRING_*) values from a .env file")
	flagAlias(cmd.Flags(), "email", "em")
	flagAlias(cmd.Flags(), "password", "pw")
	flagAlias(cmd.Flags(), "token", "tk")
	flagAlias(cmd.Flags(), "env-file", "env")

	return cmd
}

func profileFromConfig(cfg api.Config, email string) config.Profile {
	return config.Profile{
		Host:      cfg.Host,
		Port:      cfg.Port,
		UseTLS:    cfg.UseTLS,
		APIKey:    cfg.APIKey,
		AccountID: cfg.AccountID,
		BasePath:  cfg.BasePath,
		Email:     email,
	}
}

func hostOrDefault(host string) string {
	if host == "" {
		return api.DefaultHost
	}
	return host
}

func loadAuthEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("--env-file requires a file path")
	}

	envVars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}

	return envVars, nil
}

// applyAuthEnvFileRuntimeVars copies connection and keyring settings from
// --env-file into the process environment when they are not already exported.
func applyAuthEnvFileRuntimeVars(envVars map[string]string) {
	keys := []string{
		config.EnvHost,
		config.EnvPort,
		config.EnvTLS,
		config.EnvAPIKey,
		config.EnvAccountID,
		config.EnvBasePath,
		"PRECOG_KEYRING_BACKEND",
		"PRECOG_KEYRING_PASSWORD",
		"PRECOG_CREDENTIALS_DIR",
	}

	for _, key := range keys {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		value := strings.TrimSpace(envVars[key])
		if value == "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active connection settings",
		Long:  "Display the effective profile, environment and flag settings (the API key is masked).",
		Example: strings.TrimSpace(`
  precog auth status
  precog auth status --json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := newClientFactory(cmd).config()
			if err != nil {
				return err
			}
			effective := api.New(cfg).Config()

			source := "keychain"
			if strings.TrimSpace(os.Getenv(config.EnvAPIKey)) != "" || flags.APIKey != "" {
				source = "env"
			}
			var profile string
			if source == "keychain" {
				if name, err := config.ProfileName(flags.Profile); err == nil {
					profile = name
				}
			}

			if effective.APIKey == "" {
				if isStructured(cmd) {
					return printOutput(cmd, map[string]any{
						"authenticated": false,
						"host":          effective.Host,
						"message":       "Not authenticated. Run 'precog auth login' to configure credentials.",
					})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'precog auth login' to configure credentials.")
				return nil
			}

			if isStructured(cmd) {
				payload := map[string]any{
					"authenticated": true,
					"host":          effective.Host,
					"port":          effective.Port,
					"tls":           effective.UseTLS,
					"account_id":    effective.AccountID,
					"base_path":     effective.BasePath,
					"api_key":       maskToken(effective.APIKey),
					"source":        source,
				}
				if profile != "" {
					payload["profile"] = profile
				}
				return printOutput(cmd, payload)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authenticated")
			_, _ = fmt.Fprintf(out, "  URL: %s\n", api.BaseURL(effective.Host, effective.Port, effective.UseTLS))
			_, _ = fmt.Fprintf(out, "  Account ID: %s\n", dashIfEmpty(effective.AccountID))
			_, _ = fmt.Fprintf(out, "  Base path: %s\n", dashIfEmpty(effective.BasePath))
			_, _ = fmt.Fprintf(out, "  API key: %s\n", maskToken(effective.APIKey))
			if profile != "" {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", profile)
			}
			_, _ = fmt.Fprintf(out, "  Source: %s\n", source)
			return nil
		}),
	}
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials from the keychain",
		Long:  "Delete the current profile, or the one named with --profile, from your OS keychain.",
		Example: strings.TrimSpace(`
  precog auth logout
  precog auth logout --profile staging
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			name, err := config.ProfileName(flags.Profile)
			if err != nil {
				return err
			}
			if _, err := config.LoadProfile(name); err != nil {
				if err == config.ErrNotConfigured {
					if isStructured(cmd) {
						return printOutput(cmd, map[string]any{"removed": false, "profile": name})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials found.")
					return nil
				}
				return err
			}

			if err := config.DeleteProfile(name); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{"removed": true, "profile": name})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed successfully.\n", name)
			return nil
		}),
	}
}

// maskToken masks an API key for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
