// Package retention prunes finished sessions older than a configured age on
// a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/session"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Pruner deletes sessions that started more than KeepDays ago.
type Pruner struct {
	db       *gorm.DB
	keepDays int
	schedule string
}

// New creates a Pruner from the retention config.
func New(db *gorm.DB, cfg config.RetentionConfig) *Pruner {
	return &Pruner{db: db, keepDays: cfg.KeepDays, schedule: cfg.Schedule}
}

// Enabled reports whether pruning is configured.
func (p *Pruner) Enabled() bool {
	return p.keepDays > 0
}

// Cutoff returns the start-time boundary for now; older sessions are pruned.
func (p *Pruner) Cutoff(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, -p.keepDays)
}

// RunOnce prunes immediately and returns the number of sessions deleted.
func (p *Pruner) RunOnce(now time.Time) (int64, error) {
	if !p.Enabled() {
		return 0, nil
	}
	cutoff := p.Cutoff(now)
	n, err := session.Prune(p.db, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention: %w", err)
	}
	if n > 0 {
		log.Printf("retention: pruned %d sessions started before %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// Run schedules pruning and blocks until ctx is cancelled. It returns
// immediately when pruning is disabled. Failed runs are logged and wait for
// the next tick.
func (p *Pruner) Run(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	sched, err := cronParser.Parse(p.schedule)
	if err != nil {
		return fmt.Errorf("retention: parse schedule %q: %w", p.schedule, err)
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))
	c.Schedule(sched, cron.FuncJob(func() {
		if _, err := p.RunOnce(time.Now()); err != nil {
			log.Printf("retention error: %v", err)
		}
	}))
	c.Start()
	log.Printf("retention: keeping %d days, schedule %q", p.keepDays, p.schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
