package services

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"fixly/internal/apperrors"
	"fixly/internal/models"
	"fixly/internal/store"
)

// memStore is an in-memory store.Store double. Atomic serializes callers
// and restores the previous state when fn fails, mirroring the row-lock
// and transaction guarantees the services rely on.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         map[uint]models.User
	categories    map[uint]models.Category
	jobs          map[uint]models.Job
	quotes        map[uint]models.Quote
	transactions  map[uint]models.Transaction
	wallets       map[uint]models.Wallet
	notifications map[uint]models.Notification
	nextID        uint
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uint]models.User{},
		categories:    map[uint]models.Category{},
		jobs:          map[uint]models.Job{},
		quotes:        map[uint]models.Quote{},
		transactions:  map[uint]models.Transaction{},
		wallets:       map[uint]models.Wallet{},
		notifications: map[uint]models.Notification{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) Atomic(_ context.Context, fn func(store.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users := maps.Clone(m.users)
	categories := maps.Clone(m.categories)
	jobs := maps.Clone(m.jobs)
	quotes := maps.Clone(m.quotes)
	transactions := maps.Clone(m.transactions)
	wallets := maps.Clone(m.wallets)
	notifications := maps.Clone(m.notifications)
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users = users
		m.categories = categories
		m.jobs = jobs
		m.quotes = quotes
		m.transactions = transactions
		m.wallets = wallets
		m.notifications = notifications
		m.nextID = nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

// Users

func (m *memStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) IncrementCompletedJobs(_ context.Context, providerID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[providerID]; ok {
		u.CompletedJobs++
		m.users[providerID] = u
	}
	return nil
}

// Categories

func (m *memStore) GetCategory(_ context.Context, id uint) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) IncrementCategoryPopularity(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[id]; ok {
		c.Popularity++
		m.categories[id] = c
	}
	return nil
}

// Jobs

func (m *memStore) CreateJob(_ context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = m.id()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) GetJob(_ context.Context, id uint) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &j, nil
}

func (m *memStore) GetJobForUpdate(ctx context.Context, id uint) (*models.Job, error) {
	return m.GetJob(ctx, id)
}

func (m *memStore) UpdateJob(_ context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) ListClientJobs(_ context.Context, clientID uint, limit, offset int) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []models.Job
	for _, j := range m.jobs {
		if j.ClientID == clientID {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID > jobs[k].ID })
	return page(jobs, limit, offset), nil
}

func (m *memStore) ListOpenJobs(_ context.Context, categoryID uint, now time.Time, limit, offset int) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []models.Job
	for _, j := range m.jobs {
		if j.Status != models.JobPending || !now.Before(j.ExpiresAt) {
			continue
		}
		if categoryID != 0 && j.CategoryID != categoryID {
			continue
		}
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID > jobs[k].ID })
	return page(jobs, limit, offset), nil
}

// Quotes

func (m *memStore) CreateQuote(_ context.Context, quote *models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	quote.ID = m.id()
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}
	m.quotes[quote.ID] = *quote
	return nil
}

func (m *memStore) GetQuote(_ context.Context, id uint) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &q, nil
}

func (m *memStore) GetQuoteForUpdate(ctx context.Context, id uint) (*models.Quote, error) {
	return m.GetQuote(ctx, id)
}

func (m *memStore) UpdateQuote(_ context.Context, quote *models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[quote.ID] = *quote
	return nil
}

func (m *memStore) HasRootQuote(_ context.Context, jobID, providerID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotes {
		if q.JobID == jobID && q.ProviderID == providerID && q.OriginalQuoteID == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListJobQuotes(_ context.Context, jobID uint) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var quotes []models.Quote
	for _, q := range m.quotes {
		if q.JobID == jobID {
			quotes = append(quotes, q)
		}
	}
	sort.Slice(quotes, func(i, k int) bool {
		if quotes[i].Price != quotes[k].Price {
			return quotes[i].Price < quotes[k].Price
		}
		if !quotes[i].CreatedAt.Equal(quotes[k].CreatedAt) {
			return quotes[i].CreatedAt.Before(quotes[k].CreatedAt)
		}
		return quotes[i].ID < quotes[k].ID
	})
	return quotes, nil
}

func (m *memStore) DeclineSiblingQuotes(_ context.Context, jobID, acceptedQuoteID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, q := range m.quotes {
		if q.JobID == jobID && q.ID != acceptedQuoteID &&
			(q.Status == models.QuotePending || q.Status == models.QuoteUpdated) {
			q.Status = models.QuoteDeclined
			m.quotes[id] = q
		}
	}
	return nil
}

// Transactions

func (m *memStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = m.id()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	m.transactions[tx.ID] = *tx
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id uint) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) GetTransactionForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	return m.GetTransaction(ctx, id)
}

func (m *memStore) GetTransactionByReference(_ context.Context, reference string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.Reference == reference {
			return &t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) GetTransactionByReferenceForUpdate(ctx context.Context, reference string) (*models.Transaction, error) {
	return m.GetTransactionByReference(ctx, reference)
}

func (m *memStore) GetActiveJobTransaction(_ context.Context, jobID uint) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.JobID == nil || *t.JobID != jobID {
			continue
		}
		switch t.Status {
		case models.TransactionPending, models.TransactionProcessing, models.TransactionCompleted:
			return &t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) UpdateTransaction(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = *tx
	return nil
}

func (m *memStore) ListTransactions(_ context.Context, limit, offset int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txs []models.Transaction
	for _, t := range m.transactions {
		txs = append(txs, t)
	}
	sort.Slice(txs, func(i, k int) bool { return txs[i].ID > txs[k].ID })
	return page(txs, limit, offset), nil
}

func (m *memStore) ListUserTransactions(_ context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txs []models.Transaction
	for _, t := range m.transactions {
		if t.PayerID == userID || t.ProviderID == userID {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, k int) bool { return txs[i].ID > txs[k].ID })
	return page(txs, limit, offset), nil
}

func (m *memStore) ListReleasable(_ context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txs []models.Transaction
	for _, t := range m.transactions {
		if t.Status == models.TransactionCompleted && t.ReleasedAt == nil && t.PendingReleaseAt != nil {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, k int) bool { return txs[i].PendingReleaseAt.Before(*txs[k].PendingReleaseAt) })
	return txs, nil
}

// Wallets

func (m *memStore) GetWalletForProvider(_ context.Context, providerID uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.ProviderID == providerID {
			return &w, nil
		}
	}
	w := models.Wallet{ProviderID: providerID, VerificationStatus: models.WalletUnverified}
	w.ID = m.id()
	m.wallets[w.ID] = w
	return &w, nil
}

func (m *memStore) GetWalletForProviderForUpdate(ctx context.Context, providerID uint) (*models.Wallet, error) {
	return m.GetWalletForProvider(ctx, providerID)
}

func (m *memStore) GetWalletByRecipientCode(_ context.Context, code string) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.RecipientCode == code {
			return &w, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) UpdateWallet(_ context.Context, wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = *wallet
	return nil
}

func (m *memStore) ListWallets(_ context.Context, limit, offset int) ([]models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var wallets []models.Wallet
	for _, w := range m.wallets {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, k int) bool { return wallets[i].TotalEarned > wallets[k].TotalEarned })
	return page(wallets, limit, offset), nil
}

// Notifications

func (m *memStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	m.notifications[n.ID] = *n
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ns []models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		ns = append(ns, n)
	}
	sort.Slice(ns, func(i, k int) bool { return ns[i].ID > ns[k].ID })
	return page(ns, limit, offset), nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	m.notifications[id] = n
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// recordingNotifier captures emitted events so tests can assert on them.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) QuoteReceived(context.Context, uint, *models.Job, *models.Quote) {
	n.record("quote_received")
}
func (n *recordingNotifier) QuoteAccepted(context.Context, uint, *models.Job, *models.Quote) {
	n.record("quote_accepted")
}
func (n *recordingNotifier) QuoteDeclined(context.Context, uint, *models.Job) {
	n.record("quote_declined")
}
func (n *recordingNotifier) JobCancelled(context.Context, uint, *models.Job, string) {
	n.record("job_cancelled")
}
func (n *recordingNotifier) PaymentSucceeded(context.Context, uint, *models.Transaction) {
	n.record("payment_success")
}
func (n *recordingNotifier) PaymentFailed(context.Context, uint, *models.Transaction) {
	n.record("payment_failed")
}
func (n *recordingNotifier) PaymentReleased(context.Context, uint, *models.Transaction) {
	n.record("payment_released")
}
func (n *recordingNotifier) RefundProcessed(context.Context, uint, *models.Transaction) {
	n.record("refund_processed")
}
func (n *recordingNotifier) WithdrawalCompleted(context.Context, uint, *models.Transaction) {
	n.record("withdrawal_completed")
}
func (n *recordingNotifier) WithdrawalFailed(context.Context, uint, *models.Transaction) {
	n.record("withdrawal_failed")
}

// fakeProvider is a scriptable PaymentProvider.
type fakeProvider struct {
	mu sync.Mutex

	chargeErr    error
	recipientErr error
	transferErr  error
	refundErr    error

	charges   int
	transfers int
	refunds   int
}

func (p *fakeProvider) InitializeCharge(_ context.Context, _ string, _ float64, reference string, _ map[string]string) (*ChargeAuthorization, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chargeErr != nil {
		return nil, p.chargeErr
	}
	p.charges++
	return &ChargeAuthorization{
		AuthorizationURL: "https://checkout.test/" + reference,
		AccessCode:       "AC_test",
		Reference:        reference,
	}, nil
}

func (p *fakeProvider) CreateTransferRecipient(context.Context, string, string, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recipientErr != nil {
		return "", p.recipientErr
	}
	return "RCP_test", nil
}

func (p *fakeProvider) InitiateTransfer(_ context.Context, _ string, _ float64, _, reference string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transferErr != nil {
		return "", p.transferErr
	}
	p.transfers++
	return "TRF_" + reference, nil
}

func (p *fakeProvider) CreateRefund(context.Context, string, float64, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return "", p.refundErr
	}
	p.refunds++
	return "RF_test", nil
}
