package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"transactx/internal/models"
	"transactx/internal/money"
	"transactx/internal/repositories/memstore"
	"transactx/internal/services/transfer"
)

type MockFinder struct {
	mock.Mock
}

func (m *MockFinder) FindPendingTransfers(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type MockTransferer struct {
	mock.Mock
}

func (m *MockTransferer) Process(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx.Reference)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Payout(ctx context.Context, tx *models.Transaction) (string, error) {
	args := m.Called(ctx, tx.Reference)
	return args.String(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingTx(ref string) models.Transaction {
	return models.Transaction{
		Reference: ref,
		Type:      models.TransactionTypeSendMoney,
		Status:    models.TransactionStatusPending,
		Amount:    money.New(1000, money.NGN),
	}
}

func TestParseErrorPolicy(t *testing.T) {
	p, err := ParseErrorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	p, err = ParseErrorPolicy(" Isolate ")
	require.NoError(t, err)
	assert.Equal(t, PolicyIsolate, p)

	_, err = ParseErrorPolicy("retry")
	assert.Error(t, err)
}

func TestSweep_ProcessesOnlyPendingSendMoney(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	repo := store.Transactions()

	seed := []*models.Transaction{
		{Reference: "a", Type: models.TransactionTypeSendMoney, Status: models.TransactionStatusPending},
		{Reference: "b", Type: models.TransactionTypeDeposit, Status: models.TransactionStatusPending},
		{Reference: "c", Type: models.TransactionTypeSendMoney, Status: models.TransactionStatusPending},
		{Reference: "d", Type: models.TransactionTypeSendMoney, Status: models.TransactionStatusFailed},
		{Reference: "e", Type: models.TransactionTypeSendMoney, Status: models.TransactionStatusPending},
	}
	for _, tx := range seed {
		require.NoError(t, repo.Create(ctx, tx))
	}

	transferer := new(MockTransferer)
	transferer.On("Process", mock.Anything, "a").Return(nil).Once()
	transferer.On("Process", mock.Anything, "c").Return(nil).Once()
	transferer.On("Process", mock.Anything, "e").Return(nil).Once()

	require.NoError(t, New(repo, transferer, PolicyAbort, discardLogger()).Sweep(ctx))

	transferer.AssertExpectations(t)
	transferer.AssertNumberOfCalls(t, "Process", 3)
	transferer.AssertNotCalled(t, "Process", mock.Anything, "b")
	transferer.AssertNotCalled(t, "Process", mock.Anything, "d")
}

func TestSweep_AbortStopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	finder := new(MockFinder)
	finder.On("FindPendingTransfers", mock.Anything).
		Return([]models.Transaction{pendingTx("1"), pendingTx("2"), pendingTx("3")}, nil)

	boom := errors.New("bank unavailable")
	transferer := new(MockTransferer)
	transferer.On("Process", mock.Anything, "1").Return(nil).Once()
	transferer.On("Process", mock.Anything, "2").Return(boom).Once()

	err := New(finder, transferer, PolicyAbort, discardLogger()).Sweep(ctx)
	assert.ErrorIs(t, err, boom)

	transferer.AssertExpectations(t)
	transferer.AssertNotCalled(t, "Process", mock.Anything, "3")
}

func TestSweep_IsolateContinuesPastErrors(t *testing.T) {
	ctx := context.Background()
	finder := new(MockFinder)
	finder.On("FindPendingTransfers", mock.Anything).
		Return([]models.Transaction{pendingTx("1"), pendingTx("2"), pendingTx("3")}, nil)

	boom := errors.New("bank unavailable")
	transferer := new(MockTransferer)
	transferer.On("Process", mock.Anything, "1").Return(nil).Once()
	transferer.On("Process", mock.Anything, "2").Return(boom).Once()
	transferer.On("Process", mock.Anything, "3").Return(nil).Once()

	err := New(finder, transferer, PolicyIsolate, discardLogger()).Sweep(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "transfer 2")

	transferer.AssertExpectations(t)
}

func TestSweep_FinderError(t *testing.T) {
	finder := new(MockFinder)
	finder.On("FindPendingTransfers", mock.Anything).Return(nil, errors.New("db down"))

	transferer := new(MockTransferer)
	err := New(finder, transferer, PolicyAbort, discardLogger()).Sweep(context.Background())
	assert.ErrorContains(t, err, "db down")
	transferer.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestSweep_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	finder := new(MockFinder)
	finder.On("FindPendingTransfers", mock.Anything).
		Return([]models.Transaction{pendingTx("1"), pendingTx("2")}, nil)

	transferer := new(MockTransferer)
	transferer.On("Process", mock.Anything, "1").Run(func(mock.Arguments) { cancel() }).Return(nil).Once()

	err := New(finder, transferer, PolicyIsolate, discardLogger()).Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	transferer.AssertNotCalled(t, "Process", mock.Anything, "2")
}

func TestSweep_OverlappingPassesTransferOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Wallets().Create(ctx, &models.Wallet{UserID: 1}))
	tx := pendingTx("only")
	tx.UserID = 1
	require.NoError(t, store.Transactions().Create(ctx, &tx))

	provider := new(MockProvider)
	provider.On("Payout", mock.Anything, "only").Return("tr_1", nil)

	transfers := transfer.NewService(store, provider, discardLogger())
	sweeper := New(store.Transactions(), transfers, PolicyAbort, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sweeper.Sweep(ctx))
		}()
	}
	wg.Wait()

	provider.AssertNumberOfCalls(t, "Payout", 1)
	stored, err := store.Transactions().FindByReference(ctx, "only")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccessful, stored.Status)
}
