package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/user"
	"github.com/opsportal/ops-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	clearData      bool
	seedEmail      string
	seedPassword   string
	seedName       string
	seedFinanceKey string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with the first admin and the finance key",
	Long:  `Seed the record store with an admin account and a finance key for development and first deployments.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSeed(cmd.Context()); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedEmail, "email", "admin@ops.local", "email of the admin account")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "password of the admin account")
	seedCmd.Flags().StringVar(&seedName, "name", "Administrador", "display name of the admin account")
	seedCmd.Flags().StringVar(&seedFinanceKey, "finance-key", "", "finance PIN to store when none is configured")
}

// seededCollections lists every key the seed command may wipe.
var seededCollections = []string{
	store.Users,
	store.AttendanceRecords,
	store.AttendanceExtras,
	store.AttendanceRequests,
	store.AttendanceCorrections,
	store.FinanceTransactions,
	store.FinanceAccounts,
	store.FinanceCategories,
	store.FinanceMonthClosures,
	store.WorkSchedules,
}

func runSeed(ctx context.Context) error {
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

	if clearData {
		for _, name := range seededCollections {
			if err := store.NewCollection[json.RawMessage](st, name).Set(ctx, nil); err != nil {
				return fmt.Errorf("clear %s: %w", name, err)
			}
		}
		if err := store.NewDocument[json.RawMessage](st, store.SettingsFinance).Set(ctx, json.RawMessage("{}")); err != nil {
			return fmt.Errorf("clear %s: %w", store.SettingsFinance, err)
		}
		fmt.Println("Cleared existing data")
	}

	_, err = svc.Users.GetByEmail(ctx, seedEmail)
	switch {
	case err == nil:
		fmt.Println("admin user already exists:", seedEmail)
	case errors.Is(err, user.ErrUserNotFound):
		if _, err := svc.Users.Create(ctx, user.CreateUserDTO{
			Email:       seedEmail,
			Password:    seedPassword,
			DisplayName: seedName,
			Role:        user.RoleAdmin,
		}); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		fmt.Println("Seeded admin user:", seedEmail)
	default:
		return err
	}

	key := seedFinanceKey
	if key == "" {
		key = cfg.Finance.InitialKey
	}
	if key != "" {
		written, err := svc.Gate.EnsureKey(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to store finance key: %w", err)
		}
		if written {
			fmt.Println("Seeded finance key")
		} else {
			fmt.Println("finance key already configured; left unchanged")
		}
	}

	schedules, err := svc.Schedules.List(ctx)
	if err != nil {
		return err
	}
	for _, ws := range schedules {
		fmt.Printf("schedule %s: %s (%d min/week)\n", ws.ID, ws.Name, ws.WeeklyMinutes)
	}

	fmt.Println("Seeding completed successfully")
	return nil
}
