package commands

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"SetCodeGen/config"
	"SetCodeGen/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "setcodegen",
		Short: "Build and sign EIP-7702 set-code transactions",
		Long: `Build and sign EIP-7702 set-code transactions and the authorization tuples
they carry, either from the command line or through an HTTP API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "config.toml", "Path to the TOML config file")
	rootCmd.PersistentFlags().String("private-key", "", "Hex private key, overrides the account file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides the config file)")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSignAuthCmd())
	rootCmd.AddCommand(newSignTxCmd())
	rootCmd.AddCommand(newDecodeCmd())
	return rootCmd
}

// loadConfig reads --config, falling back to defaults when the file is absent.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*logrus.Logger, error) {
	level := cfg.Log.Level
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = override
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(lvl)
	return log, nil
}

// signingKey resolves the key from --private-key or the configured account.
func signingKey(cmd *cobra.Command, cfg config.Config) (*ecdsa.PrivateKey, common.Address, error) {
	if hexKey, _ := cmd.Flags().GetString("private-key"); hexKey != "" {
		return wallet.KeyFromHex(hexKey)
	}
	return wallet.LoadKey(cfg.Account.Path, cfg.Account.DerivationPath)
}

// setup runs the common prologue of the signing commands.
func setup(cmd *cobra.Command) (*logrus.Logger, *ecdsa.PrivateKey, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	key, address, err := signingKey(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get private key: %w", err)
	}
	log.WithField("address", address.Hex()).Debug("Loaded signing key")
	return log, key, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
