package services

import (
	"context"
	"time"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// JobService owns the job state machine: pending → in_progress →
// completed, pending → cancelled, pending → expired (lazy, time-based).
type JobService struct {
	store    store.Store
	notifier Notifier
}

func NewJobService(s store.Store, n Notifier) *JobService {
	return &JobService{store: s, notifier: n}
}

type CreateJobInput struct {
	CategoryID      uint              `json:"category_id" validate:"required"`
	Description     string            `json:"description" validate:"required,max=2000"`
	Specializations string            `json:"specializations"`
	Latitude        float64           `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64           `json:"longitude" validate:"min=-180,max=180"`
	Address         string            `json:"address" validate:"required"`
	Urgency         models.JobUrgency `json:"urgency" validate:"required"`
	PriceMin        float64           `json:"price_min" validate:"gte=0"`
	PriceMax        float64           `json:"price_max" validate:"gte=0"`
}

// CreateJob validates the request, computes the expiry from the urgency
// and bumps the category's popularity counter in the same transaction.
func (s *JobService) CreateJob(ctx context.Context, clientID uint, in CreateJobInput) (*models.Job, error) {
	if !models.ValidUrgency(in.Urgency) {
		return nil, apperrors.Validation("urgency", "must be one of urgent, asap, next_week")
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return nil, apperrors.Validation("coordinates", "latitude/longitude out of range")
	}
	if in.PriceMax > 0 && in.PriceMax < in.PriceMin {
		return nil, apperrors.Validation("price_max", "must not be below price_min")
	}

	now := time.Now()
	job := &models.Job{
		ClientID:        clientID,
		CategoryID:      in.CategoryID,
		Description:     in.Description,
		Specializations: in.Specializations,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Address:         in.Address,
		Urgency:         in.Urgency,
		PriceMin:        in.PriceMin,
		PriceMax:        in.PriceMax,
		Status:          models.JobPending,
		ExpiresAt:       models.ExpiryFor(in.Urgency, now),
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetCategory(ctx, in.CategoryID); err != nil {
			return err
		}
		if err := tx.CreateJob(ctx, job); err != nil {
			return err
		}
		return tx.IncrementCategoryPopularity(ctx, in.CategoryID)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// AcceptQuote is the serialization point for a job: two concurrent accepts
// on the same job take the same row lock, and the second one finds the job
// no longer pending. The accepted quote, the job transition and the bulk
// decline of every sibling quote commit or roll back together.
func (s *JobService) AcceptQuote(ctx context.Context, jobID, quoteID, actorID uint) (*models.Job, error) {
	var job *models.Job
	var quote *models.Quote
	var expired bool

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		job, err = tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.ClientID != actorID {
			return apperrors.ErrNotAuthorized
		}
		if job.IsExpired(time.Now()) {
			// Commit the lazy flip, then fail the accept after the
			// transaction so the new status is not rolled back with it.
			job.Status = models.JobExpired
			expired = true
			return tx.UpdateJob(ctx, job)
		}
		if job.Status != models.JobPending {
			return apperrors.ErrInvalidState
		}

		quote, err = tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.JobID != jobID || !quote.IsActive() {
			return apperrors.ErrInvalidState
		}

		quote.Status = models.QuoteAccepted
		if err := tx.UpdateQuote(ctx, quote); err != nil {
			return err
		}
		if err := tx.DeclineSiblingQuotes(ctx, jobID, quoteID); err != nil {
			return err
		}

		job.Status = models.JobInProgress
		job.AcceptedQuoteID = &quote.ID
		return tx.UpdateJob(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperrors.ErrInvalidState
	}

	s.notifier.QuoteAccepted(ctx, quote.ProviderID, job, quote)
	return job, nil
}

// MarkComplete transitions an in-progress job to completed. Only the
// provider holding the accepted quote may call it. Calling it on an
// already-completed job is a no-op so the payment path and the manual
// path can arrive in either order.
func (s *JobService) MarkComplete(ctx context.Context, jobID, actorID uint) (*models.Job, error) {
	var job *models.Job

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		job, err = tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.AcceptedQuoteID == nil {
			return apperrors.ErrInvalidState
		}
		quote, err := tx.GetQuote(ctx, *job.AcceptedQuoteID)
		if err != nil {
			return err
		}
		if quote.ProviderID != actorID {
			return apperrors.ErrNotAuthorized
		}
		if job.Status == models.JobCompleted {
			return nil
		}
		if job.Status != models.JobInProgress {
			return apperrors.ErrInvalidState
		}

		now := time.Now()
		job.Status = models.JobCompleted
		job.CompletedAt = &now
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}
		return tx.IncrementCompletedJobs(ctx, actorID)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CancelJob cancels a still-pending job. In-progress jobs go through the
// refund flow instead.
func (s *JobService) CancelJob(ctx context.Context, jobID, actorID uint, reason string) (*models.Job, error) {
	var job *models.Job
	var quotes []models.Quote

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		job, err = tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.ClientID != actorID {
			return apperrors.ErrNotAuthorized
		}
		if job.Status != models.JobPending {
			return apperrors.ErrInvalidState
		}

		now := time.Now()
		job.Status = models.JobCancelled
		job.CancelledAt = &now
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}

		quotes, err = tx.ListJobQuotes(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, err
	}

	notified := map[uint]bool{}
	for i := range quotes {
		if providerID := quotes[i].ProviderID; !notified[providerID] {
			notified[providerID] = true
			s.notifier.JobCancelled(ctx, providerID, job, reason)
		}
	}
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

func (s *JobService) ListClientJobs(ctx context.Context, clientID uint, limit, offset int) ([]models.Job, error) {
	return s.store.ListClientJobs(ctx, clientID, limit, offset)
}

func (s *JobService) ListOpenJobs(ctx context.Context, categoryID uint, limit, offset int) ([]models.Job, error) {
	return s.store.ListOpenJobs(ctx, categoryID, time.Now(), limit, offset)
}
