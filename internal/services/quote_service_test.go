package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fixly/internal/apperrors"
	"fixly/internal/models"
)

func TestSubmitQuote(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)

	quote, err := f.quotes.SubmitQuote(ctx, provider.ID, SubmitQuoteInput{
		JobID:       job.ID,
		Price:       120,
		Description: "Available this afternoon",
	})
	require.NoError(t, err)
	require.Equal(t, models.QuotePending, quote.Status)
	require.Nil(t, quote.OriginalQuoteID)

	got, err := f.store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.QuoteCount)
	require.Equal(t, 1, f.notifier.count("quote_received"))
}

func TestSubmitQuoteOnlyProviders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	otherClient := f.seedUser(t, models.RoleClient)
	job := f.seedOpenJob(t, client.ID)

	_, err := f.quotes.SubmitQuote(ctx, otherClient.ID, SubmitQuoteInput{
		JobID: job.ID, Price: 100, Description: "d",
	})
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestSubmitQuoteOwnJobRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// A provider posting a job cannot also quote on it.
	owner := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, owner.ID)

	_, err := f.quotes.SubmitQuote(ctx, owner.ID, SubmitQuoteInput{
		JobID: job.ID, Price: 100, Description: "d",
	})
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestSubmitQuoteDuplicateRoot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)

	_, err := f.quotes.SubmitQuote(ctx, provider.ID, SubmitQuoteInput{
		JobID: job.ID, Price: 100, Description: "first",
	})
	require.NoError(t, err)

	_, err = f.quotes.SubmitQuote(ctx, provider.ID, SubmitQuoteInput{
		JobID: job.ID, Price: 90, Description: "second",
	})
	require.ErrorIs(t, err, apperrors.ErrDuplicateQuote)

	got, err := f.store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.QuoteCount)
}

func TestSubmitQuoteClosedJob(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)
	job.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, f.store.UpdateJob(ctx, job))

	_, err := f.quotes.SubmitQuote(ctx, provider.ID, SubmitQuoteInput{
		JobID: job.ID, Price: 100, Description: "d",
	})
	require.ErrorIs(t, err, apperrors.ErrJobNotOpen)
}

func TestReviseQuoteChainsOffOriginal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)
	quote := f.seedQuote(t, job.ID, provider.ID, 150)

	revised, err := f.quotes.ReviseQuote(ctx, quote.ID, provider.ID, ReviseQuoteInput{Price: 130})
	require.NoError(t, err)

	require.Equal(t, 130.0, revised.Price)
	require.Equal(t, quote.Description, revised.Description)
	require.Equal(t, models.QuoteUpdated, revised.Status)
	require.True(t, revised.IsUpdated)
	require.Equal(t, quote.ID, *revised.OriginalQuoteID)

	original, err := f.store.GetQuote(ctx, quote.ID)
	require.NoError(t, err)
	require.Equal(t, models.QuoteCancelled, original.Status)
}

func TestReviseQuoteGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	other := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)
	quote := f.seedQuote(t, job.ID, provider.ID, 150)

	_, err := f.quotes.ReviseQuote(ctx, quote.ID, other.ID, ReviseQuoteInput{Price: 10})
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	quote.Status = models.QuoteDeclined
	require.NoError(t, f.store.UpdateQuote(ctx, quote))
	_, err = f.quotes.ReviseQuote(ctx, quote.ID, provider.ID, ReviseQuoteInput{Price: 10})
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDeclineQuote(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)
	quote := f.seedQuote(t, job.ID, provider.ID, 150)

	_, err := f.quotes.DeclineQuote(ctx, quote.ID, provider.ID)
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	got, err := f.quotes.DeclineQuote(ctx, quote.ID, client.ID)
	require.NoError(t, err)
	require.Equal(t, models.QuoteDeclined, got.Status)
	require.Equal(t, 1, f.notifier.count("quote_declined"))
}

func TestCancelQuote(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)
	quote := f.seedQuote(t, job.ID, provider.ID, 150)

	_, err := f.quotes.CancelQuote(ctx, quote.ID, client.ID)
	require.ErrorIs(t, err, apperrors.ErrNotAuthorized)

	got, err := f.quotes.CancelQuote(ctx, quote.ID, provider.ID)
	require.NoError(t, err)
	require.Equal(t, models.QuoteCancelled, got.Status)

	_, err = f.quotes.CancelQuote(ctx, quote.ID, provider.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestListJobQuotesOrdering(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	providerA := f.seedUser(t, models.RoleProvider)
	providerB := f.seedUser(t, models.RoleProvider)
	providerC := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)

	f.seedQuote(t, job.ID, providerA.ID, 200)
	cheapFirst := f.seedQuote(t, job.ID, providerB.ID, 90)
	f.seedQuote(t, job.ID, providerC.ID, 90)

	quotes, err := f.quotes.ListJobQuotes(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	require.Equal(t, cheapFirst.ID, quotes[0].ID)
	require.Equal(t, 90.0, quotes[0].Price)
	require.Equal(t, 90.0, quotes[1].Price)
	require.Equal(t, 200.0, quotes[2].Price)
}
