package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/config"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/generic"
	"github.com/warp/capacity-engine/store/sqlite"
)

// sourceOptions selects the data and the period shared by the read commands.
type sourceOptions struct {
	snapshot   string
	db         string
	configPath string
	start      string
	end        string
	period     string
	asOf       string
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.snapshot, "snapshot", "", "JSON snapshot file")
	cmd.Flags().StringVar(&o.db, "db", "", "SQLite database (instead of --snapshot)")
	cmd.Flags().StringVar(&o.configPath, "config", "", "YAML config file for engine settings")
	cmd.Flags().StringVar(&o.start, "start", "", "Period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.end, "end", "", "Period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.period, "period", string(generic.PeriodMonth), "Named period when --start/--end are empty")
	cmd.Flags().StringVar(&o.asOf, "as-of", "", "As-of date (default: today)")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "db")
}

// resolve returns the engine, the snapshot, the period and the as-of date.
func (o *sourceOptions) resolve(ctx context.Context) (*capacity.Engine, capacity.Snapshot, generic.Period, generic.TimePoint, error) {
	var zero capacity.Snapshot
	fail := func(err error) (*capacity.Engine, capacity.Snapshot, generic.Period, generic.TimePoint, error) {
		return nil, zero, generic.Period{}, generic.TimePoint{}, err
	}

	cfg := config.Defaults()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return fail(err)
		}
		cfg = loaded
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return fail(err)
	}
	engine, err := capacity.New(engineCfg)
	if err != nil {
		return fail(err)
	}

	asOf := generic.Today()
	if o.asOf != "" {
		if asOf, err = generic.ParseDate(o.asOf); err != nil {
			return fail(err)
		}
	}
	period, err := o.resolvePeriod(asOf)
	if err != nil {
		return fail(err)
	}

	var snap capacity.Snapshot
	switch {
	case o.snapshot != "":
		snap, err = factory.LoadSnapshotFile(o.snapshot)
	case o.db != "":
		snap, err = loadFromDB(ctx, o.db, period)
	default:
		err = errors.New("one of --snapshot or --db is required")
	}
	if err != nil {
		return fail(err)
	}
	log.Debug().Str("period", period.String()).Int("units", len(snap.Units)).Msg("snapshot loaded")
	return engine, snap, period, asOf, nil
}

func (o *sourceOptions) resolvePeriod(asOf generic.TimePoint) (generic.Period, error) {
	if o.start == "" && o.end == "" {
		return generic.NamedPeriod(generic.PeriodKind(o.period), asOf)
	}
	start, err := generic.ParseDate(o.start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("--start: %w", err)
	}
	end, err := generic.ParseDate(o.end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("--end: %w", err)
	}
	p := generic.NewPeriod(start, end)
	if p.IsEmpty() {
		return generic.Period{}, generic.ErrInvalidPeriod
	}
	return p, nil
}

func loadFromDB(ctx context.Context, path string, period generic.Period) (capacity.Snapshot, error) {
	st, err := sqlite.New(path)
	if err != nil {
		return capacity.Snapshot{}, err
	}
	defer st.Close()
	return st.Snapshot(ctx, period)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// COMMANDS
// =============================================================================

func newAggregateCmd() *cobra.Command {
	var opts sourceOptions
	var excludeUnits, excludeActivities []string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate unit rows and company KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, snap, period, asOf, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}
			if len(excludeUnits) > 0 {
				snap.Units = lo.Reject(snap.Units, func(u capacity.Unit, _ int) bool {
					return lo.Contains(excludeUnits, string(u.ID))
				})
			}
			excluded := make([]capacity.ActivityType, 0, len(excludeActivities))
			for _, a := range excludeActivities {
				t := capacity.ActivityType(a)
				if !t.IsKnown() {
					return fmt.Errorf("--exclude-activities %q: %w", a, generic.ErrUnknownActivity)
				}
				excluded = append(excluded, t)
			}
			result := engine.AggregateWith(snap, period, asOf, capacity.Options{
				Activities: capacity.ExcludingActivities(excluded),
			})
			for _, w := range result.Warnings {
				log.Warn().Msg(w)
			}
			return printJSON(cmd.OutOrStdout(), api.ToAggregateResponse(uuid.NewString(), result))
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringSliceVar(&excludeUnits, "exclude-units", nil, "Unit IDs to leave out")
	cmd.Flags().StringSliceVar(&excludeActivities, "exclude-activities", nil, "Activity types to leave out of demand")
	return cmd
}

func newBreakdownCmd() *cobra.Command {
	var opts sourceOptions
	var person string

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show one person's capacity, demand and forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, snap, period, asOf, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}
			row, warnings, err := engine.PersonBreakdown(snap, capacity.PersonID(person), period, asOf)
			if err != nil {
				return fmt.Errorf("%s: %w", person, err)
			}
			return printJSON(cmd.OutOrStdout(), api.PersonBreakdownResponse{
				Period:   api.ToPeriodDTO(period),
				AsOf:     asOf.String(),
				Person:   api.ToPersonRowDTO(row),
				Warnings: append([]string{}, warnings...),
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&person, "person", "", "Person ID (required)")
	_ = cmd.MarkFlagRequired("person")
	return cmd
}

func newWeeklyCmd() *cobra.Command {
	var opts sourceOptions

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Weekly company load over the period",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, snap, period, _, err := opts.resolve(cmd.Context())
			if err != nil {
				return err
			}
			weeks, warnings := engine.WeeklySeries(snap, period)
			return printJSON(cmd.OutOrStdout(), api.WeeklySeriesResponse{
				Period:   api.ToPeriodDTO(period),
				Weeks:    lo.Map(weeks, func(w capacity.WeekLoad, _ int) api.WeekLoadDTO { return api.ToWeekLoadDTO(w) }),
				Warnings: append([]string{}, warnings...),
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

var periodKinds = []generic.PeriodKind{
	generic.PeriodWeek,
	generic.PeriodMonth,
	generic.PeriodQuarter,
	generic.PeriodHalfYear,
	generic.PeriodYear,
	generic.PeriodMonthToDate,
	generic.PeriodLast30Days,
}

func newPeriodsCmd() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List the named periods containing a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf := generic.Today()
			if asOfFlag != "" {
				var err error
				if asOf, err = generic.ParseDate(asOfFlag); err != nil {
					return err
				}
			}
			out := make([]api.NamedPeriodResponse, 0, len(periodKinds))
			for _, kind := range periodKinds {
				p, err := generic.NamedPeriod(kind, asOf)
				if err != nil {
					return err
				}
				out = append(out, api.NamedPeriodResponse{Kind: string(kind), AsOf: asOf.String(), Period: api.ToPeriodDTO(p)})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "Date (default: today)")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List norm presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(factory.PresetNames(), "\n"))
			return err
		},
	}
}

func newImportCmd() *cobra.Command {
	var snapshotPath, dbPath string
	var reset bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Write a JSON snapshot into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := factory.LoadSnapshotFile(snapshotPath)
			if err != nil {
				return err
			}
			st, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if reset {
				if err := st.Reset(ctx); err != nil {
					return err
				}
			}
			if err := capacity.Import(ctx, st, snap); err != nil {
				return err
			}
			log.Info().Str("db", dbPath).Int("units", len(snap.Units)).Int("time_log", len(snap.TimeLog)).Msg("snapshot imported")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d units, %d work items, %d time-log entries, %d plans\n",
				len(snap.Units), len(snap.WorkItems), len(snap.TimeLog), len(snap.Plans))
			return err
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "JSON snapshot file (required)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (required)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete existing data first")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
