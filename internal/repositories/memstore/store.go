// Package memstore is an in-memory repositories.Store used by tests and
// local tooling. WithinTransaction holds a store-wide lock for the whole
// callback and rolls back on error, which stands in for row locks.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"transactx/internal/models"
	"transactx/internal/repositories"
)

type data struct {
	transactions map[uint]models.Transaction
	wallets      map[uint]models.Wallet // by user id
	nextTxID     uint
	nextFeeID    uint
	nextWalletID uint
}

func (d *data) clone() *data {
	c := &data{
		transactions: make(map[uint]models.Transaction, len(d.transactions)),
		wallets:      make(map[uint]models.Wallet, len(d.wallets)),
		nextTxID:     d.nextTxID,
		nextFeeID:    d.nextFeeID,
		nextWalletID: d.nextWalletID,
	}
	for id, tx := range d.transactions {
		c.transactions[id] = copyTx(tx)
	}
	for id, w := range d.wallets {
		c.wallets[id] = w
	}
	return c
}

type Store struct {
	mu sync.Mutex
	d  *data
}

func New() *Store {
	return &Store{d: &data{
		transactions: map[uint]models.Transaction{},
		wallets:      map[uint]models.Wallet{},
	}}
}

func (s *Store) Transactions() repositories.TransactionRepository {
	return &transactionRepo{d: s.d, lock: &s.mu}
}

func (s *Store) Wallets() repositories.WalletRepository {
	return &walletRepo{d: s.d, lock: &s.mu}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(&txStore{d: s.d}); err != nil {
		*s.d = *snapshot
		return err
	}
	return nil
}

// txStore is the view handed to WithinTransaction callbacks; the store lock
// is already held.
type txStore struct {
	d *data
}

func (t *txStore) Transactions() repositories.TransactionRepository {
	return &transactionRepo{d: t.d, lock: noLock{}}
}

func (t *txStore) Wallets() repositories.WalletRepository {
	return &walletRepo{d: t.d, lock: noLock{}}
}

func (t *txStore) WithinTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	return fn(t)
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

func copyTx(tx models.Transaction) models.Transaction {
	if tx.Fees != nil {
		fees := make([]models.TransactionFee, len(tx.Fees))
		copy(fees, tx.Fees)
		tx.Fees = fees
	}
	return tx
}

type transactionRepo struct {
	d    *data
	lock sync.Locker
}

func (r *transactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.d.nextTxID++
	tx.ID = r.d.nextTxID
	if tx.Reference == "" {
		tx.Reference = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}
	now := time.Now()
	tx.CreatedAt, tx.UpdatedAt = now, now
	for i := range tx.Fees {
		r.d.nextFeeID++
		tx.Fees[i].ID = r.d.nextFeeID
		tx.Fees[i].TransactionID = tx.ID
		tx.Fees[i].CreatedAt = now
	}
	r.d.transactions[tx.ID] = copyTx(*tx)
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.get(id)
}

func (r *transactionRepo) get(id uint) (*models.Transaction, error) {
	tx, ok := r.d.transactions[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	c := copyTx(tx)
	return &c, nil
}

func (r *transactionRepo) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for id, tx := range r.d.transactions {
		if tx.Reference == reference {
			return r.get(id)
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *transactionRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var all []models.Transaction
	for _, tx := range r.d.transactions {
		if tx.UserID == userID {
			all = append(all, copyTx(tx))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []models.Transaction{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *transactionRepo) FindPendingTransfers(ctx context.Context) ([]models.Transaction, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var pending []models.Transaction
	for _, tx := range r.d.transactions {
		if tx.IsPendingTransfer() {
			pending = append(pending, copyTx(tx))
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func (r *transactionRepo) LockByID(ctx context.Context, id uint) (*models.Transaction, error) {
	return r.FindByID(ctx, id)
}

// Save keeps the stored fee rows, matching the gorm repository which omits
// associations on save.
func (r *transactionRepo) Save(ctx context.Context, tx *models.Transaction) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	existing, ok := r.d.transactions[tx.ID]
	if !ok {
		return repositories.ErrTransactionNotFound
	}
	updated := copyTx(*tx)
	updated.Fees = existing.Fees
	updated.UpdatedAt = time.Now()
	tx.UpdatedAt = updated.UpdatedAt
	r.d.transactions[tx.ID] = updated
	return nil
}

type walletRepo struct {
	d    *data
	lock sync.Locker
}

func (r *walletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.d.nextWalletID++
	wallet.ID = r.d.nextWalletID
	if wallet.Status == "" {
		wallet.Status = models.WalletStatusActive
	}
	now := time.Now()
	wallet.CreatedAt, wallet.UpdatedAt = now, now
	r.d.wallets[wallet.UserID] = *wallet
	return nil
}

func (r *walletRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	w, ok := r.d.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return &w, nil
}

func (r *walletRepo) LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *walletRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.d.wallets[wallet.UserID]; !ok {
		return repositories.ErrWalletNotFound
	}
	wallet.UpdatedAt = time.Now()
	r.d.wallets[wallet.UserID] = *wallet
	return nil
}
