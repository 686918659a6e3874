package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/config"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile", "pr"},
		Short:   "Manage stored connection profiles",
	}

	cmd.AddCommand(newProfilesListCmd())
	cmd.AddCommand(newProfilesUseCmd())
	cmd.AddCommand(newProfilesShowCmd())
	cmd.AddCommand(newProfilesDeleteCmd())

	return cmd
}

func newProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured profiles",
		Example: "precog profiles list",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{
					"current":  current,
					"profiles": profiles,
				})
			}

			if len(profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured. Run 'precog auth login' to add one.")
				return nil
			}

			f := newFormatter(cmd)
			f.StartTable([]string{"CURRENT", "PROFILE", "HOST", "ACCOUNT ID"})
			for _, name := range profiles {
				marker := ""
				if name == current {
					marker = "*"
				}
				host, account := "-", "-"
				if p, err := config.LoadProfile(name); err == nil {
					host = hostOrDefault(p.Host)
					account = dashIfEmpty(p.AccountID)
				}
				f.Row(marker, name, host, account)
			}
			return f.EndTable()
		}),
	}
}

func newProfilesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "use <name>",
		Short:   "Switch active profile",
		Example: "precog profiles use staging",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := args[0]
			profile, err := loadNamedProfile(name)
			if err != nil {
				return err
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{"current": name, "host": hostOrDefault(profile.Host)})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current profile: %s (%s)\n", name, hostOrDefault(profile.Host))
			return nil
		}),
	}
}

func newProfilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show [name]",
		Short:   "Show profile details",
		Example: "precog profiles show staging",
		Args:    cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				current, err := config.ProfileName(flags.Profile)
				if err != nil {
					return err
				}
				name = current
			}

			p, err := loadNamedProfile(name)
			if err != nil {
				return err
			}

			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{
					"profile":    name,
					"host":       hostOrDefault(p.Host),
					"port":       p.Port,
					"tls":        p.UseTLS,
					"account_id": p.AccountID,
					"base_path":  p.BasePath,
					"email":      p.Email,
					"api_key":    maskToken(p.APIKey),
				})
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Profile: %s\n", name)
			_, _ = fmt.Fprintf(out, "  Host: %s\n", hostOrDefault(p.Host))
			if p.Port != 0 {
				_, _ = fmt.Fprintf(out, "  Port: %d\n", p.Port)
			}
			_, _ = fmt.Fprintf(out, "  Account ID: %s\n", dashIfEmpty(p.AccountID))
			if p.BasePath != "" {
				_, _ = fmt.Fprintf(out, "  Base path: %s\n", p.BasePath)
			}
			if p.Email != "" {
				_, _ = fmt.Fprintf(out, "  Email: %s\n", p.Email)
			}
			_, _ = fmt.Fprintf(out, "  API key: %s\n", maskToken(p.APIKey))
			return nil
		}),
	}
}

func newProfilesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Example: "precog profiles delete staging",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := loadNamedProfile(name); err != nil {
				return err
			}
			if err := config.DeleteProfile(name); err != nil {
				return err
			}
			if isStructured(cmd) {
				return printOutput(cmd, map[string]any{"deleted": name})
			}
			printAction(cmd, "Deleted", "profile", name)
			return nil
		}),
	}
}

// loadNamedProfile loads a profile, suggesting a close name when it is missing.
func loadNamedProfile(name string) (config.Profile, error) {
	p, err := config.LoadProfile(name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, config.ErrNotConfigured) {
		return config.Profile{}, err
	}
	if names, listErr := config.ListProfiles(); listErr == nil {
		if match := suggest(name, names); match != "" && match != name {
			return config.Profile{}, fmt.Errorf("profile %q not found\n\nDid you mean %q?", name, match)
		}
	}
	return config.Profile{}, fmt.Errorf("profile %q not found", name)
}
