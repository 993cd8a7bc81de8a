package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"internlee-engine/internal/config"
	"internlee-engine/internal/secrets"
)

func newSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the store password in the OS keychain",
	}

	setCmd := &cobra.Command{
		Use:   "set-store-password",
		Short: "Read the store password from stdin and save it to the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			account := secrets.StoreKeyringAccount(cfg)
			if err := secrets.SetStorePassword(secrets.OS, account, strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved password for", account)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete-store-password",
		Short: "Remove the store password from the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			account := secrets.StoreKeyringAccount(cfg)
			if err := secrets.DeleteStorePassword(secrets.OS, account); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted password for", account)
			return nil
		},
	}

	cmd.AddCommand(setCmd, deleteCmd)
	return cmd
}
