package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

type watchOptions struct {
	api        string
	token      string
	jwtSecret  string
	runID      string
	thoughtID  string
	regenerate bool
	interval   time.Duration
}

// outputIsTTY แยกไว้ให้ test บังคับ plain mode
var outputIsTTY = stdoutIsTTY

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "runwatch",
		Short: "Watch a pipeline run until it is ready or failed",
		Long: `runwatch polls GET /api/v1/runs/:id and renders layers and scenes until the run
is terminal. With --trigger it first starts a run for the given thought.

  runwatch --run <run-id>
  runwatch --trigger <thought-id> --token $TOKEN [--regenerate]
  runwatch --trigger <thought-id> --jwt-secret $JWT_SECRET

Every flag can also be set as RUNWATCH_<FLAG> (e.g. RUNWATCH_API, RUNWATCH_JWT_SECRET).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, watchOptions{
				api:        v.GetString("api"),
				token:      v.GetString("token"),
				jwtSecret:  v.GetString("jwt-secret"),
				runID:      v.GetString("run"),
				thoughtID:  v.GetString("trigger"),
				regenerate: v.GetBool("regenerate"),
				interval:   v.GetDuration("interval"),
			})
		},
	}

	f := cmd.Flags()
	f.String("api", "http://localhost:8080", "API base URL")
	f.StringP("token", "t", "", "bearer token (required for --trigger unless --jwt-secret is set)")
	f.String("jwt-secret", "", "mint a short-lived dev token with this secret when --token is empty")
	f.String("run", "", "run id to watch")
	f.String("trigger", "", "thought id to start a run for")
	f.Bool("regenerate", false, "regenerate a ready run (with --trigger)")
	f.Duration("interval", 3*time.Second, "poll interval")
	_ = v.BindPFlags(f)

	v.SetEnvPrefix("RUNWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func runWatch(cmd *cobra.Command, opts watchOptions) error {
	out := cmd.OutOrStdout()

	token := opts.token
	if token == "" && opts.jwtSecret != "" {
		minted, err := utils.GenerateToken(&utils.UserContext{ID: uuid.New(), Username: "runwatch"}, opts.jwtSecret, time.Hour)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		token = minted
	}

	client := newAPIClient(opts.api, token)

	runID, err := resolveRunID(cmd.Context(), out, client, opts)
	if err != nil {
		return err
	}

	if !outputIsTTY() {
		return watchPlain(out, client, runID, opts.interval)
	}

	p := tea.NewProgram(newWatchModel(runID, client, opts.interval), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(watchModel); ok && m.status != nil && m.status.Status == "failed" {
		return errors.New("run failed")
	}
	return nil
}

func resolveRunID(parent context.Context, out io.Writer, client *apiClient, opts watchOptions) (uuid.UUID, error) {
	if opts.runID != "" {
		id, err := uuid.Parse(opts.runID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid --run: %w", err)
		}
		return id, nil
	}
	if opts.thoughtID == "" {
		return uuid.Nil, errors.New("either --run or --trigger is required")
	}

	thoughtID, err := uuid.Parse(opts.thoughtID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --trigger: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 15*time.Second)
	defer cancel()
	resp, err := client.Trigger(ctx, thoughtID, opts.regenerate)
	if err != nil {
		return uuid.Nil, fmt.Errorf("trigger: %w", err)
	}
	if resp.Started {
		fmt.Fprintf(out, "run %s started at layer %d (attempt %d)\n", resp.RunID, resp.StartLayer, resp.Attempt)
	} else {
		fmt.Fprintf(out, "run %s already %s\n", resp.RunID, resp.Status)
	}
	return resp.RunID, nil
}

// watchPlain สำหรับ CI / pipe ที่ไม่มี TTY
func watchPlain(out io.Writer, client statusFetcher, runID uuid.UUID, interval time.Duration) error {
	errCount := 0
	last := ""
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		status, err := client.Status(ctx, runID)
		cancel()

		if err != nil {
			errCount++
			fmt.Fprintf(out, "poll error (%d/%d): %v\n", errCount, maxFetchErrors, err)
			if errCount >= maxFetchErrors {
				return err
			}
		} else {
			errCount = 0
			line := fmt.Sprintf("%s layer=%d progress=%.1f%%", status.Status, status.CurrentLayer, status.Progress)
			if line != last {
				fmt.Fprintln(out, line)
				last = line
			}
			switch status.Status {
			case "ready":
				fmt.Fprintln(out, status.FinalVideoURL)
				return nil
			case "failed":
				return fmt.Errorf("run failed: %s", status.ErrorMessage)
			}
		}
		time.Sleep(interval)
	}
}

func stdoutIsTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
