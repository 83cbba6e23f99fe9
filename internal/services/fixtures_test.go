package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fixly/internal/models"
)

const testWebhookSecret = "sk_test_secret"

// fixture wires every service against the shared in-memory store so tests
// drive the same code paths the HTTP layer does.
type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	provider *fakeProvider

	jobs       *JobService
	quotes     *QuoteService
	payments   *PaymentService
	settlement *SettlementService
	wallets    *WalletService
	webhooks   *WebhookService
}

func newFixture() *fixture {
	st := newMemStore()
	n := &recordingNotifier{}
	p := &fakeProvider{}
	settlement := NewSettlementService(st, p, n, 72*time.Hour)
	return &fixture{
		store:      st,
		notifier:   n,
		provider:   p,
		jobs:       NewJobService(st, n),
		quotes:     NewQuoteService(st, n),
		payments:   NewPaymentService(st, p, n, settlement, 0.10),
		settlement: settlement,
		wallets:    NewWalletService(st, p, n),
		webhooks:   NewWebhookService(st, settlement, n, testWebhookSecret),
	}
}

func (f *fixture) seedUser(t *testing.T, role string) *models.User {
	t.Helper()
	user := &models.User{
		FullName: "Test " + role,
		Email:    fmt.Sprintf("%s-%d@test.local", role, f.store.nextID+1),
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) seedCategory(t *testing.T) *models.Category {
	t.Helper()
	category := &models.Category{Name: "Plumbing"}
	f.store.mu.Lock()
	category.ID = f.store.id()
	f.store.categories[category.ID] = *category
	f.store.mu.Unlock()
	return category
}

func (f *fixture) seedOpenJob(t *testing.T, clientID uint) *models.Job {
	t.Helper()
	now := time.Now()
	job := &models.Job{
		ClientID:    clientID,
		CategoryID:  f.seedCategory(t).ID,
		Description: "Leaking kitchen sink",
		Latitude:    6.52,
		Longitude:   3.37,
		Address:     "12 Marina Rd",
		Urgency:     models.UrgencyASAP,
		Status:      models.JobPending,
		ExpiresAt:   models.ExpiryFor(models.UrgencyASAP, now),
	}
	require.NoError(t, f.store.CreateJob(context.Background(), job))
	return job
}

func (f *fixture) seedQuote(t *testing.T, jobID, providerID uint, price float64) *models.Quote {
	t.Helper()
	quote := &models.Quote{
		JobID:       jobID,
		ProviderID:  providerID,
		Price:       price,
		Description: "Can fix it tomorrow",
		Status:      models.QuotePending,
	}
	require.NoError(t, f.store.CreateQuote(context.Background(), quote))
	return quote
}

// seedAcceptedJob returns a client, a provider and a job whose quote has
// been accepted through the real accept path.
func (f *fixture) seedAcceptedJob(t *testing.T, price float64) (*models.User, *models.User, *models.Job, *models.Quote) {
	t.Helper()
	ctx := context.Background()

	client := f.seedUser(t, models.RoleClient)
	provider := f.seedUser(t, models.RoleProvider)
	job := f.seedOpenJob(t, client.ID)
	quote := f.seedQuote(t, job.ID, provider.ID, price)

	job, err := f.jobs.AcceptQuote(ctx, job.ID, quote.ID, client.ID)
	require.NoError(t, err)
	return client, provider, job, quote
}

// seedCompletedCashPayment drives a cash payment to completed through the
// initiate and confirm paths, leaving the provider share pending.
func (f *fixture) seedCompletedCashPayment(t *testing.T, price float64) (*models.User, *models.User, *models.Transaction) {
	t.Helper()
	ctx := context.Background()

	client, provider, job, _ := f.seedAcceptedJob(t, price)

	init, err := f.payments.InitiatePayment(ctx, job.ID, client.ID, models.MethodCash)
	require.NoError(t, err)
	tx, err := f.payments.ConfirmCashPayment(ctx, init.Transaction.ID, provider.ID)
	require.NoError(t, err)
	return client, provider, tx
}
