package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronSchedule is a Schedule backed by a standard five-field cron
// expression (minute hour day-of-month month day-of-week). Descriptors such
// as "@daily" and "@every 1h" are accepted too.
type CronSchedule struct {
	expr     string
	schedule cron.Schedule
}

// ParseCronSchedule parses a cron expression.
func ParseCronSchedule(expr string) (*CronSchedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &CronSchedule{expr: expr, schedule: schedule}, nil
}

// Next returns the next activation time after t.
func (s *CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// String returns the original expression.
func (s *CronSchedule) String() string {
	return s.expr
}
