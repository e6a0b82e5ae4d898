package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tanishk053/tanigpt/internal/dashboard"
	"github.com/Tanishk053/tanigpt/internal/store"
)

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Run the admin web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := viper.GetString("dashboard.password")
			if password == "" {
				return fmt.Errorf("missing dashboard.password (set via TANIGPT_DASHBOARD_PASSWORD)")
			}

			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			dataDir := strings.TrimSpace(flagOrViperString(cmd, "data-dir", "data.dir"))
			if dataDir == "" {
				dataDir = "user_data"
			}
			st, err := store.Open(dataDir)
			if err != nil {
				return err
			}

			srv, err := dashboard.NewServer(st, password, logger)
			if err != nil {
				return err
			}

			bind := strings.TrimSpace(flagOrViperString(cmd, "bind", "dashboard.bind"))
			port := flagOrViperInt(cmd, "port", "dashboard.port")
			if port <= 0 {
				port = 5000
			}
			addr := fmt.Sprintf("%s:%d", bind, port)

			logger.Info("dashboard_listen", "addr", addr, "data_dir", dataDir)
			return http.ListenAndServe(addr, srv.Router())
		},
	}

	cmd.Flags().String("bind", "127.0.0.1", "Dashboard bind address.")
	cmd.Flags().Int("port", 5000, "Dashboard port.")
	cmd.Flags().String("data-dir", "user_data", "Directory for the user store.")

	return cmd
}
