package config

import (
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
)

// FilterConfig selects the calendar days a report covers. Both bounds are
// inclusive day keys. An empty StartDay means the beginning of history.
type FilterConfig struct {
	StartDay string
	EndDay   string
	Limit    int
	JSON     bool
}

// Filter builds a FilterConfig from the --period, --start, and --end flags.
// Without any flag the last 7 days are selected.
func Filter(ctx *cli.Context, now time.Time) (*FilterConfig, error) {
	cfg := &FilterConfig{
		Limit: ctx.Int("limit"),
		JSON:  ctx.Bool("json"),
	}

	period := timeutil.Period(strings.TrimSpace(ctx.String("period")))
	start := strings.TrimSpace(ctx.String("start"))
	end := strings.TrimSpace(ctx.String("end"))

	if period == "" && start == "" && end == "" {
		period = timeutil.Period7Days
	}

	if period != "" {
		if !slices.Contains(timeutil.PeriodCollection, period) {
			return nil, errInvalidPeriod.Fmt(period)
		}

		cfg.StartDay, cfg.EndDay = timeutil.PeriodRange(period, now)

		return cfg, nil
	}

	cfg.EndDay = now.Format(timeutil.DayLayout)

	if start != "" {
		t, err := timeutil.FromStr(start, now)
		if err != nil {
			return nil, errInvalidDate.Fmt(start).Wrap(err)
		}

		cfg.StartDay = t.In(now.Location()).Format(timeutil.DayLayout)
	}

	if end != "" {
		t, err := timeutil.FromStr(end, now)
		if err != nil {
			return nil, errInvalidDate.Fmt(end).Wrap(err)
		}

		cfg.EndDay = t.In(now.Location()).Format(timeutil.DayLayout)
	}

	if cfg.StartDay != "" && cfg.EndDay < cfg.StartDay {
		return nil, apperr.ErrInvalidRange.Fmt(cfg.EndDay, cfg.StartDay)
	}

	return cfg, nil
}
