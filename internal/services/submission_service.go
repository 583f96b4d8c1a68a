package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"market-admin/internal/cache"
	"market-admin/internal/models"
	"market-admin/internal/notify"
)

type SubmissionStore interface {
	List(ctx context.Context, f models.SubmissionFilter) ([]*models.ItemSubmission, error)
	Get(ctx context.Context, id string) (*models.ItemSubmission, error)
	Review(ctx context.Context, id string, rv *models.Review) (*models.ItemSubmission, error)
	AppendImage(ctx context.Context, id, url string) (*models.ItemSubmission, error)
}

// SubmissionService runs the seller submission review queue.
type SubmissionService struct {
	Repo     SubmissionStore
	Activity *ActivityRecorder
	Notifier notify.Notifier
	logger   *logrus.Logger
}

func NewSubmissionService(repo SubmissionStore, activity *ActivityRecorder, notifier notify.Notifier, logger *logrus.Logger) *SubmissionService {
	return &SubmissionService{Repo: repo, Activity: activity, Notifier: notifier, logger: logger}
}

func (s *SubmissionService) List(ctx context.Context, f models.SubmissionFilter) ([]*models.ItemSubmission, error) {
	if f.Status != "" && !models.ValidSubmissionStatus(f.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.Repo.List(ctx, f)
}

func (s *SubmissionService) Get(ctx context.Context, id string) (*models.ItemSubmission, error) {
	return s.Repo.Get(ctx, id)
}

func (s *SubmissionService) Approve(ctx context.Context, actor Actor, id, notes string, expectedVersion *int) (*models.ItemSubmission, error) {
	return s.decide(ctx, actor, id, models.SubmissionApproved, notes, expectedVersion)
}

func (s *SubmissionService) Reject(ctx context.Context, actor Actor, id, notes string, expectedVersion *int) (*models.ItemSubmission, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, ErrNotesRequired
	}
	return s.decide(ctx, actor, id, models.SubmissionRejected, notes, expectedVersion)
}

// Reopen puts a reviewed submission back into the pending queue.
func (s *SubmissionService) Reopen(ctx context.Context, actor Actor, id string, expectedVersion *int) (*models.ItemSubmission, error) {
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.SubmissionPending {
		return nil, fmt.Errorf("%w: submission is already pending", ErrInvalidTransition)
	}
	sub, err := s.Repo.Review(ctx, id, &models.Review{
		Status:          models.SubmissionPending,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, sub, map[string]interface{}{"from_status": current.Status, "to_status": sub.Status})
	return sub, nil
}

func (s *SubmissionService) AddImage(ctx context.Context, actor Actor, id, url string) (*models.ItemSubmission, error) {
	sub, err := s.Repo.AppendImage(ctx, id, url)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, sub, map[string]interface{}{"image_added": url})
	return sub, nil
}

func (s *SubmissionService) decide(ctx context.Context, actor Actor, id, status, notes string, expectedVersion *int) (*models.ItemSubmission, error) {
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.SubmissionPending {
		return nil, fmt.Errorf("%w: submission is already %s", ErrInvalidTransition, current.Status)
	}

	rv := &models.Review{
		Status:          status,
		ReviewedBy:      actor.AdminID,
		ExpectedVersion: expectedVersion,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		rv.AdminNotes = &notes
	}
	sub, err := s.Repo.Review(ctx, id, rv)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, sub, map[string]interface{}{"from_status": current.Status, "to_status": status})
	s.notifySeller(ctx, sub)
	return sub, nil
}

func (s *SubmissionService) notifySeller(ctx context.Context, sub *models.ItemSubmission) {
	if s.Notifier == nil || sub.SellerPhone == "" {
		return
	}
	msg := notify.SubmissionDecision(sub.Title, sub.Status, sub.AdminNotes)
	if err := s.Notifier.Send(ctx, sub.SellerPhone, msg); err != nil {
		s.logger.WithError(err).WithField("submission_id", sub.ID).Warn("Failed to notify seller")
	}
}

func (s *SubmissionService) changed(ctx context.Context, actor Actor, sub *models.ItemSubmission, details map[string]interface{}) {
	cache.InvalidateTable(ctx, "item_submissions")
	details["title"] = sub.Title
	s.Activity.Record(ctx, actor, models.ActionUpdate, "item_submissions", sub.ID, details)
}
