package commands

import (
	"SetCodeGen/api"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transaction generator API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("listen-addr"); addr != "" {
				cfg.Server.ListenAddr = addr
			}
			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			key, _, err := signingKey(cmd, cfg)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			return api.NewServer(key, log).Run(cfg.Server.ListenAddr)
		},
	}
	cmd.Flags().String("listen-addr", "", "API listen address (overrides the config file)")
	return cmd
}
