package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"qrtrack/models"
)

// Transition moves a report through the review workflow. The status change
// is a conditional update on the expected source states, so of two
// concurrent transitions only one wins and the other gets
// ErrInvalidTransition.
func (s *ReportService) Transition(ctx context.Context, actor *models.Employee, id uint, t models.Transition) (*models.Report, error) {
	from, to, privileged, ok := t.Rule()
	if !ok {
		return nil, invalid("unknown action %q", t)
	}
	if privileged && !actor.CanReview() {
		return nil, ErrForbidden
	}

	db := s.db.WithContext(ctx)
	var report models.Report
	if err := db.First(&report, id).Error; err != nil {
		return nil, notFound(err, "report")
	}
	if !actor.CanManageReportOf(report.EmployeeID) {
		return nil, ErrForbidden
	}
	if t == models.TransitionSubmit {
		if missing := report.Missing(); len(missing) > 0 {
			return nil, fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
		}
	}

	now := s.now().UTC()
	updates := map[string]any{"status": to}
	switch t {
	case models.TransitionSubmit:
		updates["submitted_at"] = now
	case models.TransitionReturn:
		updates["submitted_at"] = nil
	case models.TransitionDelete:
		updates["deleted_at"] = now
	case models.TransitionRestore:
		updates["deleted_at"] = nil
		updates["submitted_at"] = nil
	}

	res := db.Model(&models.Report{}).Where("id = ? AND status IN ?", id, from).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update report status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, t, report.Status)
	}

	s.log.Info("report status changed",
		zap.Uint("report_id", id),
		zap.String("action", string(t)),
		zap.String("from", string(report.Status)),
		zap.String("to", string(to)),
		zap.Uint("actor_id", actor.ID),
	)
	return s.Get(ctx, actor, id)
}

// Purge hard-deletes reports that have sat in Deleted longer than the
// retention window.
func (s *ReportService) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	res := s.db.WithContext(ctx).
		Where("status = ? AND deleted_at < ?", models.ReportDeleted, cutoff).
		Delete(&models.Report{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("purged deleted reports", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// RunPurger calls Purge every interval until ctx is cancelled.
func (s *ReportService) RunPurger(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Purge(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("purge deleted reports", zap.Error(err))
			}
		}
	}
}
