package cli

import (
	"crew-route-service/internal/adapters/cache"
	"crew-route-service/internal/adapters/repositories"
	"crew-route-service/internal/app"
	"crew-route-service/internal/config"
	"crew-route-service/internal/domain"
	"crew-route-service/internal/geo"
	"crew-route-service/internal/platform/db"
	"crew-route-service/internal/ports"
	"crew-route-service/internal/services"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func (o *options) clock() (ports.Clock, error) {
	t, err := o.clockTime()
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return ports.SystemClock{}, nil
	}
	return ports.FixedClock{T: t}, nil
}

func newPlanCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute one route per available crew for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bindFlags(cmd)
			ctx := commandContext(cmd)

			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			clock, err := o.clock()
			if err != nil {
				return err
			}

			date := clock.Now()
			if d := v.GetString("date"); d != "" {
				date, err = time.ParseInLocation(domain.DateLayout, d, time.UTC)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			repo, err := repositories.LoadSnapshotRepository(cfg.SeedPath)
			if err != nil {
				return err
			}

			var closers app.Closers
			defer closers.Close()

			dc, err := distanceCache(cmd, cfg, &closers)
			if err != nil {
				return err
			}
			provider, err := app.DistanceProvider(cfg, dc)
			if err != nil {
				return err
			}

			planner := &services.Planner{
				Customers:     repo,
				Crews:         repo,
				Depots:        repo,
				Solver:        app.Solver(cfg, provider, clock),
				FallbackDepot: cfg.FallbackDepot(),
				Thresholds:    cfg.Thresholds,
			}

			company := strings.TrimSpace(v.GetString("company"))
			if company != "" {
				plan, err := planner.Plan(ctx, company, date, false)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), plan)
			}

			plans := make([]services.Plan, 0, len(repo.Companies()))
			for _, id := range repo.Companies() {
				plan, err := planner.Plan(ctx, id, date, false)
				if err != nil {
					return err
				}
				plans = append(plans, plan)
			}
			return writeJSON(cmd.OutOrStdout(), plans)
		},
	}

	cmd.Flags().String("company", "", "company id (default every company in the snapshot)")
	cmd.Flags().String("date", "", "service date YYYY-MM-DD (default today)")
	return cmd
}

// distanceCache opens the local SQLite matrix cache. It is only useful in
// front of the ORS provider, so it stays closed without an API key.
func distanceCache(cmd *cobra.Command, cfg *config.Config, closers *app.Closers) (ports.DistanceCache, error) {
	if cfg.ORS.APIKey == "" || cfg.CachePath == "" {
		return nil, nil
	}

	conn, err := db.OpenSqlite(commandContext(cmd), cfg.CachePath)
	if err != nil {
		return nil, err
	}
	closers.Add(conn.Close)

	dc := cache.NewSqliteDistanceCache(conn)
	if err := dc.InitSchema(commandContext(cmd)); err != nil {
		return nil, err
	}
	return dc, nil
}

func newEventCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Apply an arrival, departure, pause, resume or skip to a route file",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bindFlags(cmd)
			ctx := commandContext(cmd)

			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			clock, err := o.clock()
			if err != nil {
				return err
			}

			path := v.GetString("route")
			route, err := readRoute(path)
			if err != nil {
				return err
			}

			var at time.Time
			if s := v.GetString("at"); s != "" {
				if at, err = time.Parse(time.RFC3339, s); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			tr := services.NewTracker(clock, cfg.Thresholds)
			out, evt, err := tr.Apply(route, domain.RouteEventType(v.GetString("type")), v.GetString("customer"), v.GetString("reason"), at)
			if err != nil {
				return err
			}

			if v.GetBool("publish") {
				var closers app.Closers
				defer closers.Close()

				pub, err := app.Publisher(cfg, &closers)
				if err != nil {
					return err
				}
				if err := pub.Publish(ctx, evt); err != nil {
					return fmt.Errorf("publish event: %w", err)
				}
			}

			if v.GetBool("write") {
				if err := writeRoute(path, out); err != nil {
					return err
				}
			}

			return writeJSON(cmd.OutOrStdout(), struct {
				Route domain.Route      `json:"route"`
				Event domain.RouteEvent `json:"event"`
			}{out, evt})
		},
	}

	cmd.Flags().String("route", "", "route JSON file")
	cmd.Flags().String("type", "", "arrived, departed, paused, resumed or skipped")
	cmd.Flags().String("customer", "", "customer id of the stop")
	cmd.Flags().String("reason", "", "skip reason")
	cmd.Flags().String("at", "", "event time, RFC3339 (default now)")
	cmd.Flags().Bool("write", false, "write the updated route back to --route")
	cmd.Flags().Bool("publish", false, "publish the event to the configured sinks")
	_ = cmd.MarkFlagRequired("route")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func newProgressCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show completion, current stop and delay for a route file",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bindFlags(cmd)

			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			tr, route, err := o.trackerAndRoute(cfg, v.GetString("route"))
			if err != nil {
				return err
			}

			var loc *domain.Coordinates
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				c := domain.Coordinates{Lat: v.GetFloat64("lat"), Lon: v.GetFloat64("lon")}
				if !c.Valid() {
					return fmt.Errorf("location %+v is out of range", c)
				}
				loc = &c
			}

			p, err := tr.GetProgress(route, loc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().String("route", "", "route JSON file")
	cmd.Flags().Float64("lat", 0, "crew latitude")
	cmd.Flags().Float64("lon", 0, "crew longitude")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}

func newScheduleCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compare a route file against its planned duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bindFlags(cmd)

			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			tr, route, err := o.trackerAndRoute(cfg, v.GetString("route"))
			if err != nil {
				return err
			}
			st, err := tr.GetScheduleStatus(route, time.Time{})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	}

	cmd.Flags().String("route", "", "route JSON file")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}

func newBreakdownCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Split a route file's recorded time into drive, work, break and idle",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bindFlags(cmd)

			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			tr, route, err := o.trackerAndRoute(cfg, v.GetString("route"))
			if err != nil {
				return err
			}

			tb, err := tr.GetTimeBreakdown(route)
			if err != nil {
				return err
			}

			res := struct {
				domain.TimeBreakdown
				ArchivedKey string `json:"archived_key,omitempty"`
			}{TimeBreakdown: tb}

			if v.GetBool("archive") {
				a, err := app.Archive(commandContext(cmd), cfg)
				if err != nil {
					return err
				}
				if a == nil {
					return fmt.Errorf("--archive needs archive.bucket or archive.dir")
				}
				if res.ArchivedKey, err = services.ArchiveBreakdown(commandContext(cmd), a, route, tb); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().String("route", "", "route JSON file")
	cmd.Flags().Bool("archive", false, "store the report when the route is finished")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}

func newDistanceCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Look up travel distance and time between two coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := bindFlags(cmd)

			from, err := parseLatLon(v.GetString("from"))
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			to, err := parseLatLon(v.GetString("to"))
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}

			var closers app.Closers
			defer closers.Close()

			dc, err := distanceCache(cmd, cfg, &closers)
			if err != nil {
				return err
			}
			provider, err := app.DistanceProvider(cfg, dc)
			if err != nil {
				return err
			}

			res, err := provider.GetDistance(commandContext(cmd), from, to)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				DistanceMiles   float64 `json:"distance_miles"`
				DurationMinutes float64 `json:"duration_minutes"`
				Heading         string  `json:"heading"`
			}{res.DistanceMiles, res.DurationMinutes, geo.CompassPoint(geo.Bearing(from.Point(), to.Point()))})
		},
	}

	cmd.Flags().String("from", "", "origin as lat,lon")
	cmd.Flags().String("to", "", "destination as lat,lon")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func parseLatLon(s string) (domain.Coordinates, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("%q is not lat,lon", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("longitude: %w", err)
	}
	c := domain.Coordinates{Lat: la, Lon: lo}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("%+v is out of range", c)
	}
	return c, nil
}

func (o *options) trackerAndRoute(cfg *config.Config, path string) (*services.Tracker, domain.Route, error) {
	clock, err := o.clock()
	if err != nil {
		return nil, domain.Route{}, err
	}
	route, err := readRoute(path)
	if err != nil {
		return nil, domain.Route{}, err
	}
	return services.NewTracker(clock, cfg.Thresholds), route, nil
}

func readRoute(path string) (domain.Route, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Route{}, fmt.Errorf("read route: %w", err)
	}
	var r domain.Route
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.Route{}, fmt.Errorf("read route %q: %w", path, err)
	}
	return r, nil
}

func writeRoute(path string, r domain.Route) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("write route: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write route: %w", err)
	}
	return nil
}
