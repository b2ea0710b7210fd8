package analytics

import (
	"time"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
)

// periodWindows maps each period to its fixed window length in milliseconds.
var periodWindows = map[models.Period]int64{
	models.PeriodHour:  60 * 60 * 1000,
	models.PeriodDay:   24 * 60 * 60 * 1000,
	models.PeriodWeek:  7 * 24 * 60 * 60 * 1000,
	models.PeriodMonth: 30 * 24 * 60 * 60 * 1000,
}

// WindowMs returns the window length for period, falling back to a day for
// unrecognized periods.
func WindowMs(period models.Period) int64 {
	if ms, ok := periodWindows[period]; ok {
		return ms
	}
	return periodWindows[models.DefaultPeriod]
}

// ResolveWindow returns the window ending at now for period.
// Callers validate the period upstream; unknown values still resolve to a day here.
func ResolveWindow(period models.Period, now time.Time) models.TimeWindow {
	windowMs := WindowMs(period)
	end := now.UnixMilli()
	return models.TimeWindow{
		Start:    end - windowMs,
		End:      end,
		WindowMs: windowMs,
	}
}
