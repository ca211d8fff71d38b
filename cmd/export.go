package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	exportMonth string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month of finance data to XLSX",
	Long:  `Write the month's transactions and KPIs to a spreadsheet without going through the HTTP finance gate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := logger.Init(cfg.App.Env, cfg.Logging.Level)

		st, err := initStore(ctx, cfg.Store, lg)
		if err != nil {
			return err
		}
		defer st.Close(ctx)

		sessions, closeSessions, err := initSessions(ctx, cfg.Session, lg)
		if err != nil {
			return err
		}
		defer closeSessions()

		svc, err := buildServices(cfg, st, sessions, events.NopPublisher{}, lg)
		if err != nil {
			return err
		}

		month := exportMonth
		if month == "" {
			month = time.Now().Format("2006-01")
		}
		out := exportOut
		if out == "" {
			out = fmt.Sprintf("finanzas-%s.xlsx", month)
		}

		var buf bytes.Buffer
		if err := svc.Finance.ExportMonth(ctx, month, &buf); err != nil {
			return err
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		lg.Info("finance export written", "month", month, "file", out, "bytes", buf.Len())
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportMonth, "month", "m", "", "month key YYYY-MM, defaults to the current month")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, defaults to finanzas-<month>.xlsx")
}
