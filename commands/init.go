package commands

import (
	"fmt"
	"os"

	"SetCodeGen/config"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write a default config file to the --config path. The file points at
Account.json for the signing mnemonic and serves the API on :8080.`,
		Args: cobra.NoArgs,
		RunE: initCommand,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	cmd.Flags().String("listen-addr", "", "API listen address")
	cmd.Flags().String("account", "", "Path to the account JSON file")
	cmd.Flags().String("derivation-path", "", "HD derivation path of the signing key")
	return cmd
}

func initCommand(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	if v, _ := cmd.Flags().GetString("listen-addr"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v, _ := cmd.Flags().GetString("account"); v != "" {
		cfg.Account.Path = v
	}
	if v, _ := cmd.Flags().GetString("derivation-path"); v != "" {
		cfg.Account.DerivationPath = v
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Configuration Summary ===")
	fmt.Fprintf(out, "Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Fprintf(out, "Account File: %s\n", cfg.Account.Path)
	fmt.Fprintf(out, "Derivation Path: %s\n", cfg.Account.DerivationPath)
	fmt.Fprintf(out, "Config File: %s\n", path)
	return nil
}
