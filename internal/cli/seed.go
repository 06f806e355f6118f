package cli

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"ttx-deepfake/internal/config"
	redisstore "ttx-deepfake/internal/infra/redis"
	"ttx-deepfake/internal/seed"
)

// NewSeedCmd migrates the database and loads the bundled question bank.
// Cached copies in Redis are dropped so servers pick up the new content.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log.Level)
			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := runMigrations(ctx, db, logger); err != nil {
				return err
			}
			sets := seed.Bank()
			if err := seed.NewSeeder(db, logger).Run(ctx, sets); err != nil {
				return err
			}

			if cfg.Redis.Addr == "" {
				return nil
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			if err := redisstore.NewQuestionRepository(client, nil, 0).InvalidateSets(ctx, sets); err != nil {
				logger.Warn("could not drop cached question sets", "err", err)
				return nil
			}
			logger.Info("cached question sets dropped", "sets", len(sets))
			return nil
		},
	}
}
