package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/credential"
)

// envGitHubToken is read when --token is not given.
const envGitHubToken = "GITHUB_TOKEN"

// stdinIsTerminal reports whether setup may prompt. Tests override it.
var stdinIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// promptCredentials fills the missing fields of c interactively. Tests
// override it.
var promptCredentials = runCredentialForm

func newSetupCmd() *cobra.Command {
	var (
		account string
		repo    string
		token   string
		demo    bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Connect a GitHub repository or start demo mode",
		Long: `Save the GitHub account, repository, and personal access token used to
store the log, and check that the token can write to the repository.

--repo accepts "owner/name", in which case --account may be omitted. The
token defaults to $GITHUB_TOKEN. Missing values are prompted for when
running in a terminal.

With --demo, everything is stored on this device instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if demo {
				return runSetupDemo(cmd.Context(), cc)
			}

			creds := credential.Credentials{Account: account, Repository: repo, Token: token}

			return runSetupRemote(cmd.Context(), cc, creds)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "GitHub user or organization owning the repository")
	cmd.Flags().StringVar(&repo, "repo", "", "repository name (or owner/name)")
	cmd.Flags().StringVar(&token, "token", "", "personal access token (default $GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&demo, "demo", false, "store data on this device only")
	cmd.MarkFlagsMutuallyExclusive("demo", "account")
	cmd.MarkFlagsMutuallyExclusive("demo", "repo")
	cmd.MarkFlagsMutuallyExclusive("demo", "token")

	return cmd
}

func runSetupDemo(ctx context.Context, cc *CLIContext) error {
	if err := cc.Creds.SetDemo(ctx); err != nil {
		return err
	}

	cc.Statusf("Demo mode: data is saved on this device (%s).\n", cc.DB.Path())

	return nil
}

// completeCredentials applies the owner/name shorthand and the token
// environment variable.
func completeCredentials(c credential.Credentials) credential.Credentials {
	c.Account = strings.TrimSpace(c.Account)
	c.Repository = strings.TrimSpace(c.Repository)
	c.Token = strings.TrimSpace(c.Token)

	if owner, name, ok := strings.Cut(c.Repository, "/"); ok && (c.Account == "" || c.Account == owner) {
		c.Account, c.Repository = owner, name
	}

	if c.Token == "" {
		c.Token = os.Getenv(envGitHubToken)
	}

	return c
}

// missingFields names the empty fields of c.
func missingFields(c credential.Credentials) []string {
	var missing []string

	if c.Account == "" {
		missing = append(missing, "--account")
	}

	if c.Repository == "" {
		missing = append(missing, "--repo")
	}

	if c.Token == "" {
		missing = append(missing, "--token")
	}

	return missing
}

func runSetupRemote(ctx context.Context, cc *CLIContext, creds credential.Credentials) error {
	creds = completeCredentials(creds)

	if missing := missingFields(creds); len(missing) > 0 {
		if !stdinIsTerminal() {
			return fmt.Errorf("missing %s", strings.Join(missing, ", "))
		}

		if err := promptCredentials(ctx, &creds); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return errors.New("setup canceled")
			}

			return err
		}
	}

	previous := cc.Creds.Credentials()

	if err := cc.Creds.SetConfig(ctx, creds.Account, creds.Repository, creds.Token); err != nil {
		return err
	}

	info, err := cc.contentStore().TestConnection(ctx)
	if err != nil {
		if restoreErr := restoreCredentials(ctx, cc.Creds, previous); restoreErr != nil {
			cc.Logger.Warn("could not restore previous settings", "error", restoreErr)
		}

		return fmt.Errorf("checking %s/%s: %w%s", creds.Account, creds.Repository, err, storeErrorHint(err))
	}

	cc.Statusf("Connected to %s (branch %s).\n", info.FullName, branchOrDefault(cc.Cfg.GitHub.Branch, info.DefaultBranch))

	// Loading once confirms existing documents are readable.
	_, snap, err := cc.loadLog(ctx)
	if err != nil {
		return err
	}

	cc.Statusf("Found %d sessions, %d injuries, %d suspension presets.\n",
		len(snap.Sessions), len(snap.Profile.Injuries), len(snap.Suspension.Presets))

	return nil
}

func branchOrDefault(configured, repoDefault string) string {
	if configured != "" {
		return configured
	}

	return repoDefault
}

// restoreCredentials puts back what was saved before a failed setup.
func restoreCredentials(ctx context.Context, s *credential.Store, previous credential.Credentials) error {
	if previous.Account == "" && previous.Repository == "" && previous.Token == "" {
		return s.Clear(ctx)
	}

	return s.SetConfig(ctx, previous.Account, previous.Repository, previous.Token)
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}

		return nil
	}
}

// runCredentialForm asks for the connection settings in the terminal.
func runCredentialForm(ctx context.Context, c *credential.Credentials) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub account").
				Description("User or organization that owns the data repository.").
				Value(&c.Account).
				Validate(requiredField("account")),
			huh.NewInput().
				Title("Repository").
				Description("An existing repository; documents go under data/.").
				Value(&c.Repository).
				Validate(requiredField("repository")),
			huh.NewInput().
				Title("Personal access token").
				Description("Needs read and write access to repository contents.").
				EchoMode(huh.EchoModePassword).
				Value(&c.Token).
				Validate(requiredField("token")),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	*c = completeCredentials(*c)

	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved connection settings",
		Long: `Remove the saved account, repository, and token from this device.
Documents in the repository and demo data on this device are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if !cc.Creds.IsConfigured() {
				cc.Statusf("Not set up; nothing to forget.\n")
				return nil
			}

			if err := cc.Creds.Clear(cmd.Context()); err != nil {
				return err
			}

			cc.Statusf("Connection settings removed.\n")

			return nil
		},
	}
}
