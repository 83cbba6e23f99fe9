package services

import (
	"context"
	"time"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// QuoteService owns a single provider's proposal lifecycle. Acceptance
// lives on JobService because it has cross-quote effects.
type QuoteService struct {
	store    store.Store
	notifier Notifier
}

func NewQuoteService(s store.Store, n Notifier) *QuoteService {
	return &QuoteService{store: s, notifier: n}
}

type SubmitQuoteInput struct {
	JobID       uint    `json:"job_id" validate:"required"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Description string  `json:"description" validate:"required,max=2000"`
}

// SubmitQuote creates a root quote. A provider may hold at most one root
// quote per job; revisions chain off it instead of creating a second root.
func (s *QuoteService) SubmitQuote(ctx context.Context, providerID uint, in SubmitQuoteInput) (*models.Quote, error) {
	provider, err := s.store.GetUser(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !provider.IsProvider() {
		return nil, apperrors.ErrNotAuthorized
	}

	var job *models.Job
	quote := &models.Quote{
		JobID:       in.JobID,
		ProviderID:  providerID,
		Price:       in.Price,
		Description: in.Description,
		Status:      models.QuotePending,
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		job, err = tx.GetJobForUpdate(ctx, in.JobID)
		if err != nil {
			return err
		}
		if !job.IsOpen(time.Now()) {
			return apperrors.ErrJobNotOpen
		}
		if job.ClientID == providerID {
			return apperrors.ErrNotAuthorized
		}

		exists, err := tx.HasRootQuote(ctx, in.JobID, providerID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrDuplicateQuote
		}

		if err := tx.CreateQuote(ctx, quote); err != nil {
			return err
		}
		job.QuoteCount++
		return tx.UpdateJob(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.QuoteReceived(ctx, job.ClientID, job, quote)
	return quote, nil
}

type ReviseQuoteInput struct {
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description" validate:"max=2000"`
}

// ReviseQuote supersedes the current record: it is cancelled and a new
// linked record is created, preserving the full lineage. History is never
// mutated in place.
func (s *QuoteService) ReviseQuote(ctx context.Context, quoteID, providerID uint, in ReviseQuoteInput) (*models.Quote, error) {
	var successor models.Quote

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		current, err := tx.GetQuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if current.ProviderID != providerID {
			return apperrors.ErrNotAuthorized
		}
		if !current.IsActive() {
			return apperrors.ErrInvalidState
		}

		job, err := tx.GetJob(ctx, current.JobID)
		if err != nil {
			return err
		}
		if !job.IsOpen(time.Now()) {
			return apperrors.ErrJobNotOpen
		}

		current.Status = models.QuoteCancelled
		if err := tx.UpdateQuote(ctx, current); err != nil {
			return err
		}

		successor = current.Revision(in.Price, in.Description)
		return tx.CreateQuote(ctx, &successor)
	})
	if err != nil {
		return nil, err
	}
	return &successor, nil
}

// DeclineQuote lets the job's client decline an individual quote.
func (s *QuoteService) DeclineQuote(ctx context.Context, quoteID, actorID uint) (*models.Quote, error) {
	return s.transition(ctx, quoteID, actorID, models.QuoteDeclined, false)
}

// CancelQuote lets the owning provider withdraw their quote.
func (s *QuoteService) CancelQuote(ctx context.Context, quoteID, actorID uint) (*models.Quote, error) {
	return s.transition(ctx, quoteID, actorID, models.QuoteCancelled, true)
}

func (s *QuoteService) transition(ctx context.Context, quoteID, actorID uint, next models.QuoteStatus, byOwner bool) (*models.Quote, error) {
	var quote *models.Quote
	var job *models.Job

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		quote, err = tx.GetQuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		job, err = tx.GetJob(ctx, quote.JobID)
		if err != nil {
			return err
		}
		if byOwner {
			if quote.ProviderID != actorID {
				return apperrors.ErrNotAuthorized
			}
		} else if job.ClientID != actorID {
			return apperrors.ErrNotAuthorized
		}
		if !quote.IsActive() {
			return apperrors.ErrInvalidState
		}

		quote.Status = next
		return tx.UpdateQuote(ctx, quote)
	})
	if err != nil {
		return nil, err
	}

	if next == models.QuoteDeclined {
		s.notifier.QuoteDeclined(ctx, quote.ProviderID, job)
	}
	return quote, nil
}

// ListJobQuotes returns a job's quotes ordered by price, ties broken by
// submission time, so any ranking built on top is deterministic.
func (s *QuoteService) ListJobQuotes(ctx context.Context, jobID uint) ([]models.Quote, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListJobQuotes(ctx, jobID)
}
