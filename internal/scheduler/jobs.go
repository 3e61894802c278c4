package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cristian75IT/kronos-core/internal/leave"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

// checkExpirations implements check_expirations (spec §4.6): every tick,
// sweep PENDING approval requests past their expires_at and apply each
// workflow's expiration_action exactly once.
func (s *Scheduler) checkExpirations(ctx context.Context) {
	processed, err := s.workflow.RunExpirationSweep(ctx, s.config.ExpirationSweepLimit)
	if err != nil {
		log.Error().Err(err).Int("processed", processed).Msg("check_expirations job failed")
		return
	}
	log.Info().Int("processed", processed).Msg("check_expirations job completed")
}

// RunCheckExpirations manually triggers check_expirations, mirroring the
// teacher's TriggerExecution/RunNow manual-trigger surface.
func (s *Scheduler) RunCheckExpirations(ctx context.Context) (int, error) {
	return s.workflow.RunExpirationSweep(ctx, s.config.ExpirationSweepLimit)
}

// sendReminders implements send_reminders (spec §4.6): dispatch due
// reminders, skipping requests no longer PENDING, and mark each sent.
func (s *Scheduler) sendReminders(ctx context.Context) {
	dispatched, err := workflow.DispatchReminders(ctx, s.reminders, s.requests, s.notifier, s.config.ReminderDispatchLimit)
	if err != nil {
		log.Error().Err(err).Int("dispatched", dispatched).Msg("send_reminders job failed")
		return
	}
	log.Info().Int("dispatched", dispatched).Msg("send_reminders job completed")
}

// RunSendReminders manually triggers send_reminders.
func (s *Scheduler) RunSendReminders(ctx context.Context) (int, error) {
	return workflow.DispatchReminders(ctx, s.reminders, s.requests, s.notifier, s.config.ReminderDispatchLimit)
}

// cleanupOldRequests implements cleanup_old_requests (spec §4.6): delete
// terminal approval requests resolved before the retention cutoff
// (default 730 days), in batches bounded by CleanupBatchLimit.
func (s *Scheduler) cleanupOldRequests(ctx context.Context) {
	deleted, err := s.RunCleanupOldRequests(ctx)
	if err != nil {
		log.Error().Err(err).Int("deleted", deleted).Msg("cleanup_old_requests job failed")
		return
	}
	log.Info().Int("deleted", deleted).Msg("cleanup_old_requests job completed")
}

// RunCleanupOldRequests manually triggers cleanup_old_requests, deleting
// every retention-eligible row it can find up to CleanupBatchLimit per
// call (callers that want to drain a larger backlog call it repeatedly,
// same as the scheduled cron entry does tick over tick).
func (s *Scheduler) RunCleanupOldRequests(ctx context.Context) (int, error) {
	candidates, err := s.retained.ListOlderThanRetention(ctx, s.config.RetentionDays, s.config.CleanupBatchLimit)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, req := range candidates {
		if err := s.retained.Delete(ctx, req.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// TriggerClosureRecalculation implements recalculate_for_closure (spec
// §4.6): invoked directly by the config service when a company closure is
// inserted, updated, or deleted, rather than on a cron tick.
func (s *Scheduler) TriggerClosureRecalculation(ctx context.Context, from, to time.Time) (leave.RecalculateForClosureResult, error) {
	return s.leave.RecalculateForClosure(ctx, from, to, s.config.ClosureRecalcLimit)
}
