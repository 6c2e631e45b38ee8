package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"turtle_dash/pkg/logger"
)

// RunDaily дергает раннер раз в день в заданное локальное время.
// Перекрытий не бывает по построению (сутки >> длительность скана),
// а даже если скан затянулся — триггер просто отбросится.
func RunDaily(ctx context.Context, at string, r *Runner) {
	hour, minute, err := parseClock(at)
	if err != nil {
		logger.Error("scheduler: bad scan time %q: %v", at, err)
		return
	}

	for {
		next := nextRunAfter(time.Now(), hour, minute)
		logger.Info("scheduler: next scan at %s", next.Format("2006-01-02 15:04"))

		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			if !r.Trigger("schedule") {
				logger.Warn("scheduler: runner busy, daily trigger dropped")
			}
		}
	}
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, errors.Wrap(err, "parse clock")
	}
	return t.Hour(), t.Minute(), nil
}

// nextRunAfter — ближайшее будущее наступление ЧЧ:ММ по локальным часам.
func nextRunAfter(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
