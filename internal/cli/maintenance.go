package cli

import (
	"context"
	"fmt"
	"log"

	"railprep/internal/app"
	"railprep/internal/config"
	"railprep/internal/infra/memory"
	redisinfra "railprep/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewMaintenanceCmd groups the bulk corrections over the progress record.
func NewMaintenanceCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Bulk corrections on the stored progress record",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dedupe",
		Short: "Collapse near-simultaneous identical history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), *configPath, func(ctx context.Context, service *app.Service) error {
				progress, err := service.DeduplicateHistory(ctx)
				if err != nil {
					return err
				}
				log.Printf("history entries after dedupe: %d (points=%d avg=%d)",
					len(progress.QuestionHistory), progress.TotalPoints, progress.AverageScore)
				return nil
			})
		},
	})

	var subject string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Remove a subject group's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			return withService(cmd.Context(), *configPath, func(ctx context.Context, service *app.Service) error {
				progress, err := service.ResetSubject(ctx, subject)
				if err != nil {
					return err
				}
				log.Printf("history entries after reset of %q: %d", subject, len(progress.QuestionHistory))
				return nil
			})
		},
	}
	reset.Flags().StringVar(&subject, "subject", "", "subject group key to reset")
	cmd.AddCommand(reset)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset-all",
		Short: "Replace the whole progress record with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), *configPath, func(ctx context.Context, service *app.Service) error {
				_, err := service.ResetAll(ctx)
				if err == nil {
					log.Printf("progress reset to defaults")
				}
				return err
			})
		},
	})

	return cmd
}

// withService wires a service against the configured Redis store. The
// question bank is not needed for maintenance, so an empty corpus is used.
func withService(ctx context.Context, configPath string, fn func(context.Context, *app.Service) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr not configured; maintenance needs the durable store")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = "quiz:"
	}
	kv := redisinfra.NewKV(client, prefix)
	store := app.NewProgressStore(kv)
	bank, err := app.NewQuestionBank(ctx, memory.NewStaticCorpus(nil), kv, cfg.SubjectGroups())
	if err != nil {
		return err
	}
	service := app.NewService(store, bank, redisinfra.NewSessionArchive(client), cfg.Rules(), cfg.SubjectGroups())
	return fn(ctx, service)
}
