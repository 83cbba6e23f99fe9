package store

import (
	"context"
	"time"

	"fixly/internal/models"
)

// Store is the persistence boundary the services work against. The GORM
// implementation backs it in production; tests substitute an in-memory
// double.
//
// Atomic runs fn against a store scoped to one database transaction.
// Every state-machine transition runs inside a single Atomic call, and the
// ForUpdate variants take row locks so concurrent transitions on the same
// job, wallet or transaction serialize.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	// Users
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	IncrementCompletedJobs(ctx context.Context, providerID uint) error

	// Categories
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	IncrementCategoryPopularity(ctx context.Context, id uint) error

	// Jobs
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uint) (*models.Job, error)
	GetJobForUpdate(ctx context.Context, id uint) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	ListClientJobs(ctx context.Context, clientID uint, limit, offset int) ([]models.Job, error)
	ListOpenJobs(ctx context.Context, categoryID uint, now time.Time, limit, offset int) ([]models.Job, error)

	// Quotes
	CreateQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, id uint) (*models.Quote, error)
	GetQuoteForUpdate(ctx context.Context, id uint) (*models.Quote, error)
	UpdateQuote(ctx context.Context, quote *models.Quote) error
	HasRootQuote(ctx context.Context, jobID, providerID uint) (bool, error)
	// ListJobQuotes orders by price, ties broken by submission time.
	ListJobQuotes(ctx context.Context, jobID uint) ([]models.Quote, error)
	// DeclineSiblingQuotes bulk-declines every still-active quote on the
	// job except the accepted one, in a single pass.
	DeclineSiblingQuotes(ctx context.Context, jobID, acceptedQuoteID uint) error

	// Transactions
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id uint) (*models.Transaction, error)
	GetTransactionForUpdate(ctx context.Context, id uint) (*models.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	GetTransactionByReferenceForUpdate(ctx context.Context, reference string) (*models.Transaction, error)
	GetActiveJobTransaction(ctx context.Context, jobID uint) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error)
	ListUserTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)
	// ListReleasable returns completed, unreleased transactions whose funds
	// are parked in a pending bucket.
	ListReleasable(ctx context.Context) ([]models.Transaction, error)

	// Wallets
	GetWalletForProvider(ctx context.Context, providerID uint) (*models.Wallet, error)
	GetWalletForProviderForUpdate(ctx context.Context, providerID uint) (*models.Wallet, error)
	GetWalletByRecipientCode(ctx context.Context, code string) (*models.Wallet, error)
	UpdateWallet(ctx context.Context, wallet *models.Wallet) error
	ListWallets(ctx context.Context, limit, offset int) ([]models.Wallet, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
}
