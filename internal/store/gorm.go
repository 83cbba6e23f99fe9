package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fixly/internal/apperrors"
	"fixly/internal/models"
)

// GormStore implements Store on top of a *gorm.DB handle.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Atomic wraps fn in one database transaction. The store passed to fn is
// bound to that transaction, so every read and write inside fn commits or
// rolls back together.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// Users

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) IncrementCompletedJobs(ctx context.Context, providerID uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", providerID).
		UpdateColumn("completed_jobs", gorm.Expr("completed_jobs + 1")).Error
}

// Categories

func (s *GormStore) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *GormStore) IncrementCategoryPopularity(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		UpdateColumn("popularity", gorm.Expr("popularity + 1")).Error
}

// Jobs

func (s *GormStore) CreateJob(ctx context.Context, job *models.Job) error {
	return s.db.WithContext(ctx).Create(job).Error
}

func (s *GormStore) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (s *GormStore) GetJobForUpdate(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&job, id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (s *GormStore) UpdateJob(ctx context.Context, job *models.Job) error {
	return s.db.WithContext(ctx).Save(job).Error
}

func (s *GormStore) ListClientJobs(ctx context.Context, clientID uint, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&jobs).Error
	return jobs, err
}

func (s *GormStore) ListOpenJobs(ctx context.Context, categoryID uint, now time.Time, limit, offset int) ([]models.Job, error) {
	// Jobs past expiry are excluded here rather than hard-deleted.
	q := s.db.WithContext(ctx).
		Where("status = ? AND expires_at > ?", models.JobPending, now)
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var jobs []models.Job
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error
	return jobs, err
}

// Quotes

func (s *GormStore) CreateQuote(ctx context.Context, quote *models.Quote) error {
	return s.db.WithContext(ctx).Create(quote).Error
}

func (s *GormStore) GetQuote(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.WithContext(ctx).First(&quote, id).Error; err != nil {
		return nil, translate(err)
	}
	return &quote, nil
}

func (s *GormStore) GetQuoteForUpdate(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&quote, id).Error; err != nil {
		return nil, translate(err)
	}
	return &quote, nil
}

func (s *GormStore) UpdateQuote(ctx context.Context, quote *models.Quote) error {
	return s.db.WithContext(ctx).Save(quote).Error
}

func (s *GormStore) HasRootQuote(ctx context.Context, jobID, providerID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("job_id = ? AND provider_id = ? AND original_quote_id IS NULL", jobID, providerID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ListJobQuotes(ctx context.Context, jobID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("price ASC, created_at ASC").
		Find(&quotes).Error
	return quotes, err
}

func (s *GormStore) DeclineSiblingQuotes(ctx context.Context, jobID, acceptedQuoteID uint) error {
	return s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("job_id = ? AND id <> ? AND status IN ?",
			jobID, acceptedQuoteID, []models.QuoteStatus{models.QuotePending, models.QuoteUpdated}).
		Update("status", models.QuoteDeclined).Error
}

// Transactions

func (s *GormStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *GormStore) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) GetTransactionForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) GetTransactionByReferenceForUpdate(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) GetActiveJobTransaction(ctx context.Context, jobID uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("job_id = ? AND status IN ?", jobID,
			[]models.TransactionStatus{models.TransactionPending, models.TransactionProcessing, models.TransactionCompleted}).
		First(&tx).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Save(tx).Error
}

func (s *GormStore) ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (s *GormStore) ListUserTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("payer_id = ? OR provider_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (s *GormStore) ListReleasable(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND released_at IS NULL AND pending_release_at IS NOT NULL",
			models.TransactionCompleted).
		Order("pending_release_at ASC").
		Find(&txs).Error
	return txs, err
}

// Wallets

func (s *GormStore) GetWalletForProvider(ctx context.Context, providerID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).
		Where(models.Wallet{ProviderID: providerID}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *GormStore) GetWalletForProviderForUpdate(ctx context.Context, providerID uint) (*models.Wallet, error) {
	// Wallets are created lazily; ensure the row exists before locking it.
	if _, err := s.GetWalletForProvider(ctx, providerID); err != nil {
		return nil, err
	}
	var wallet models.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider_id = ?", providerID).
		First(&wallet).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (s *GormStore) GetWalletByRecipientCode(ctx context.Context, code string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).Where("recipient_code = ?", code).First(&wallet).Error; err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (s *GormStore) UpdateWallet(ctx context.Context, wallet *models.Wallet) error {
	return s.db.WithContext(ctx).Save(wallet).Error
}

func (s *GormStore) ListWallets(ctx context.Context, limit, offset int) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := s.db.WithContext(ctx).
		Order("total_earned DESC").
		Limit(limit).Offset(offset).
		Find(&wallets).Error
	return wallets, err
}

// Notifications

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	err := query.
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
