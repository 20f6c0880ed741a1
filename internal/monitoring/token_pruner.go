package monitoring

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/thecoffeedev/password-reset-backend/internal/services"
)

// TokenPruner clears pending reset tokens that have outlived their TTL. The
// base reset flow never checks token age; pruning is the only expiry
// mechanism, so disabling it (ttl == 0) restores consume-or-overwrite-only
// semantics.
type TokenPruner struct {
	db       *sql.DB
	events   services.EventServiceProvider
	ttl      time.Duration
	schedule cron.Schedule
	ticker   *time.Ticker
	done     chan bool
}

// NewTokenPruner creates a pruner driven by the given cron expression.
func NewTokenPruner(db *sql.DB, events services.EventServiceProvider, ttl time.Duration, scheduleExpr string) (*TokenPruner, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", scheduleExpr, err)
	}
	return &TokenPruner{
		db:       db,
		events:   events,
		ttl:      ttl,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the pruner's ticking loop.
func (p *TokenPruner) Run() {
	if p.ttl <= 0 {
		log.Info().Msg("Reset token pruning disabled")
		return
	}
	log.Info().Dur("ttl", p.ttl).Msg("Starting reset token pruner...")

	nextRun := p.schedule.Next(time.Now())
	p.ticker = time.NewTicker(30 * time.Second)
	defer p.ticker.Stop()

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping reset token pruner.")
			return
		case now := <-p.ticker.C:
			if now.After(nextRun) {
				p.pruneExpired(now)
				nextRun = p.schedule.Next(now)
			}
		}
	}
}

// Stop halts the pruner.
func (p *TokenPruner) Stop() {
	if p.ttl <= 0 {
		return
	}
	p.done <- true
}

// pruneExpired clears every pending token whose request is older than the TTL.
func (p *TokenPruner) pruneExpired(now time.Time) {
	cutoff := now.Add(-p.ttl).UTC()
	res, err := p.db.Exec(
		"UPDATE users SET reset_token_hash = '', reset_requested_at = NULL WHERE reset_token_hash != '' AND reset_requested_at < ?",
		cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Pruner: failed to clear expired reset tokens")
		return
	}

	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return
	}
	log.Info().Int64("count", n).Msg("Pruner: cleared expired reset tokens")
	p.events.RecordEvent("reset.pruned", "info", fmt.Sprintf("cleared %d expired reset tokens", n), nil)
}
