package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"

	"github.com/teslamotors/climate-agent/pkg/cli"
)

type options struct {
	tokenName  string
	configPath string
}

// loadConfig reads the agent configuration for its keyring settings. An explicit -token-name
// takes precedence over keyring.token_name.
func (o *options) loadConfig(open func(keyring.Config) (keyring.Keyring, error)) (*cli.Config, error) {
	config, err := cli.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential configuration: %w", err)
	}
	config.OpenKeyring = open
	if o.tokenName != "" {
		config.KeyringTokenName = o.tokenName
	}
	if config.KeyringTokenName == "" {
		return nil, fmt.Errorf("must provide system keyring name to save refresh token under using --token-name or $%s", cli.EnvTeslaTokenName)
	}
	return config, nil
}

// newRootCommand builds the command tree. Pass a nil open to use the system keyring.
func newRootCommand(open func(keyring.Config) (keyring.Keyring, error)) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "tesla-auth-token",
		Short:         "Manage the refresh token used by tesla-climate-agent",
		Long:          "Stores the OAuth refresh token used by tesla-climate-agent in the system keyring, under\nthe name given by --token-name, keyring.token_name or $" + cli.EnvTeslaTokenName + ".",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	fs := root.PersistentFlags()
	fs.StringVar(&opts.tokenName, "token-name", "", "Name to use for keyring entry")
	fs.StringVar(&opts.configPath, "config", "", "Agent configuration `file` to read keyring settings from")

	save := &cobra.Command{
		Use:   "save [file]",
		Short: "Read a refresh token from stdin or file and save it in the keyring",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig(open)
			if err != nil {
				return err
			}

			var token []byte
			if len(args) == 0 {
				if token, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("error reading token from stdin: %w", err)
				}
			} else if token, err = os.ReadFile(args[0]); err != nil {
				return fmt.Errorf("error reading token from file: %w", err)
			}

			refreshToken := strings.TrimSpace(string(token))
			if refreshToken == "" {
				return errors.New("refusing to save an empty token")
			}
			if err := config.SaveTokenToKeyring(refreshToken); err != nil {
				return fmt.Errorf("error saving token to keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved refresh token as %s\n", config.KeyringTokenName)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete",
		Short: "Remove the refresh token from the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig(open)
			if err != nil {
				return err
			}
			if err := config.DeleteToken(); err != nil {
				return fmt.Errorf("error removing token from keyring: %w", err)
			}
			return nil
		},
	}

	root.AddCommand(save, remove)
	return root
}
