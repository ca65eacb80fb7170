// Package cli implements routectl, an offline front end to the planner and
// tracker that reads company snapshots and route documents from disk.
package cli

import (
	"context"
	"crew-route-service/internal/config"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type options struct {
	cfgFile string
	seed    string
	now     string
}

// NewRootCommand builds the routectl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "routectl",
		Short: "Plan crew routes and inspect route progress from the command line",
		Long: `routectl runs the daily route planner against a company snapshot file and
applies stop events or computes progress, schedule and time breakdowns for a
route document.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.seed, "seed", "", "company snapshot file (default is seed_path from config)")
	root.PersistentFlags().StringVar(&opts.now, "now", "", "evaluate at this RFC3339 time instead of the wall clock")

	root.AddCommand(
		newPlanCommand(opts),
		newEventCommand(opts),
		newProgressCommand(opts),
		newScheduleCommand(opts),
		newBreakdownCommand(opts),
		newDistanceCommand(opts),
	)
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration and lets --seed override seed_path.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.seed != "" {
		cfg.SeedPath = o.seed
	}
	return cfg, nil
}

// clockTime parses --now. A zero result means "use the system clock".
func (o *options) clockTime() (time.Time, error) {
	if o.now == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now: %w", err)
	}
	return t, nil
}

func bindFlags(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
