package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	natspkg "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/nats"
	"github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/postgres"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
)

var (
	errNotConfirmed = errors.New("this deletes all runs; re-run with --yes to confirm")
	errProduction   = errors.New("refusing to reset data with APP_ENV=production")
)

type tabler interface {
	TableName() string
}

// ลำดับสำคัญ (foreign keys)
var tables = []tabler{
	models.PipelineStep{},
	models.NarrationSegment{},
	models.Scene{},
	models.Run{},
	models.Thought{},
}

// tablesToClear ชื่อตารางตามลำดับ truncate
func tablesToClear(keepThoughts bool) []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, isThought := t.(models.Thought); isThought && keepThoughts {
			continue
		}
		names = append(names, t.TableName())
	}
	return names
}

// loadConfig แยกไว้ให้ test แทนได้
var loadConfig = config.LoadConfig

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "reset-data",
		Short: "Wipe all run data (dev only)",
		Long: `reset-data truncates pipeline steps, narration segments, scenes and runs
(thoughts too unless --keep-thoughts) and purges the RUN_EVENTS stream.

It refuses to run when APP_ENV=production.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !v.GetBool("yes") {
				return errNotConfirmed
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.IsProduction() {
				return errProduction
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "============================================")
			fmt.Fprintln(out, "  Reset Run Data")
			fmt.Fprintln(out, "============================================")

			clearPostgreSQL(out, cfg, tablesToClear(v.GetBool("keep-thoughts")))
			clearNATS(out, cfg)

			fmt.Fprintln(out, "  Done! Ready for fresh testing.")
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "confirm destructive reset")
	cmd.Flags().Bool("keep-thoughts", false, "keep thoughts, clear runs only")
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("RESET")
	v.AutomaticEnv()

	return cmd
}

func clearPostgreSQL(out io.Writer, cfg *config.Config, names []string) {
	fmt.Fprintln(out, "[1/2] Clearing PostgreSQL...")

	db, err := postgres.NewDatabase(postgres.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		fmt.Fprintf(out, "     Failed to connect to database: %v\n", err)
		return
	}

	for _, name := range names {
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", name)).Error; err != nil {
			fmt.Fprintf(out, "     Warning: could not truncate %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "     truncated %s\n", name)
	}
}

func clearNATS(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "[2/2] Purging NATS JetStream...")

	client, err := natspkg.NewClient(natspkg.ClientConfig{URL: cfg.NATS.URL, Name: "reset-data"})
	if err != nil {
		fmt.Fprintf(out, "     NATS not available: %v (skipping)\n", err)
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.JetStream().Stream(ctx, natspkg.StreamRunEvents)
	if err != nil {
		fmt.Fprintf(out, "     Stream %s not found (nothing to clear)\n", natspkg.StreamRunEvents)
		return
	}
	if err := stream.Purge(ctx); err != nil {
		fmt.Fprintf(out, "     Failed to purge stream: %v\n", err)
		return
	}
	fmt.Fprintln(out, "     NATS stream purged")
}
