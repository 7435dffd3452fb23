package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"transactx/internal/models"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error)

	// FindPendingTransfers returns every SEND_MONEY transaction still PENDING,
	// fees preloaded, in id order.
	FindPendingTransfers(ctx context.Context) ([]models.Transaction, error)

	// LockByID reads a transaction with SELECT ... FOR UPDATE. Only meaningful
	// inside Store.WithinTransaction.
	LockByID(ctx context.Context, id uint) (*models.Transaction, error)
	Save(ctx context.Context, tx *models.Transaction) error
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Preload("Fees").First(&tx, id).Error; err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	return &tx, nil
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Preload("Fees").
		Where("reference = ?", reference).
		First(&tx).Error
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	return &tx, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	var (
		transactions []models.Transaction
		total        int64
	)

	byUser := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	}
	if err := byUser().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := byUser().Preload("Fees").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	return transactions, total, err
}

func (r *transactionRepository) FindPendingTransfers(ctx context.Context) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.WithContext(ctx).Preload("Fees").
		Where("type = ? AND status = ?", models.TransactionTypeSendMoney, models.TransactionStatusPending).
		Order("id ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepository) LockByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, id).Error
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).Find(&tx.Fees).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) Save(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(tx).Error
}
