package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storehub/database"
	"storehub/database/seed"
	"storehub/internal/config"
	"storehub/internal/logger"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the storehub database schema and demo data",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}
		log, err = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
		return err
	},
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			return database.Migrate(db, log)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (all of them unless --steps is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		return withDB(func(db *gorm.DB) error {
			return database.Rollback(db, steps, log)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo users, stores and ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := seed.Demo()
		if err != nil {
			return err
		}
		return withDB(func(db *gorm.DB) error {
			if err := database.Migrate(db, log); err != nil {
				return err
			}
			err := seed.Load(cmd.Context(), db, data, cfg.BcryptCost, log)
			if errors.Is(err, seed.ErrAlreadySeeded) {
				log.Info("demo data already present, nothing to do")
				return nil
			}
			return err
		})
	},
}

func withDB(fn func(db *gorm.DB) error) error {
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}()
	return fn(db)
}

func init() {
	downCmd.Flags().Int("steps", 0, "number of migrations to roll back")
	rootCmd.AddCommand(upCmd, downCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
