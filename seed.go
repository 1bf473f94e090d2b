package main

import (
	"context"
	"fmt"

	"pilot-progress-system/config"
	"pilot-progress-system/logger"
	"pilot-progress-system/services"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the mission catalog from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL environment variable not set")
			}
			log, err := logger.New(cfg.LogMode, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			seed, err := services.LoadSeedFile(file)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return services.NewCatalogService(db, log).Seed(context.Background(), seed)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "catalog seed file")
	return cmd
}
