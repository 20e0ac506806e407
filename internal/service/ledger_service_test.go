package service

import (
	"fmt"
	"iqtest_backend/internal/model"
	"iqtest_backend/internal/util"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeLedgerDB 内存账本，遵循仓储层的结算契约：条件状态流转、
// balance >= amount 扣款守卫、失败不动余额
type fakeLedgerDB struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	txs    map[string]*model.Transaction
	order  []string
	nextID int
}

func newFakeLedgerDB() *fakeLedgerDB {
	return &fakeLedgerDB{
		users: make(map[uint]*model.User),
		txs:   make(map[string]*model.Transaction),
	}
}

func (db *fakeLedgerDB) addUser(id uint, username, balance string) {
	u := &model.User{
		Username: username,
		Role:     model.RoleUser,
		Balance:  decimal.RequireFromString(balance),
	}
	u.ID = id
	db.users[id] = u
}

func (db *fakeLedgerDB) snapshot(t *model.Transaction) model.Transaction {
	copied := *t
	if s, ok := db.users[t.SenderID]; ok {
		sc := *s
		copied.Sender = &sc
	}
	if r, ok := db.users[t.ReceiverID]; ok {
		rc := *r
		copied.Receiver = &rc
	}
	return copied
}

type fakeLedgerUserStore struct{ db *fakeLedgerDB }

func (f *fakeLedgerUserStore) FindByID(id uint) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeLedgerUserStore) SearchByUsername(prefix string, excludeID uint, limit int) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.User
	for id := uint(1); int(id) <= len(f.db.users)+1; id++ {
		u, ok := f.db.users[id]
		if !ok || u.ID == excludeID || !strings.HasPrefix(u.Username, prefix) {
			continue
		}
		out = append(out, *u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeTransactionStore struct{ db *fakeLedgerDB }

func (f *fakeTransactionStore) Create(t *model.Transaction) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.nextID++
	t.ID = fmt.Sprintf("tx-%d", f.db.nextID)
	copied := *t
	f.db.txs[t.ID] = &copied
	f.db.order = append(f.db.order, t.ID)
	return nil
}

func (f *fakeTransactionStore) FindByID(id string) (*model.Transaction, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.txs[id]
	if !ok {
		return nil, util.ErrTransactionNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTransactionStore) ListByUser(userID uint) ([]model.Transaction, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Transaction
	for i := len(f.db.order) - 1; i >= 0; i-- {
		t := f.db.txs[f.db.order[i]]
		if t.SenderID != userID && t.ReceiverID != userID {
			continue
		}
		out = append(out, f.db.snapshot(t))
	}
	return out, nil
}

func (f *fakeTransactionStore) ListAll() ([]model.Transaction, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Transaction
	for i := len(f.db.order) - 1; i >= 0; i-- {
		out = append(out, f.db.snapshot(f.db.txs[f.db.order[i]]))
	}
	return out, nil
}

func (f *fakeTransactionStore) MarkFailed(id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.txs[id]
	if !ok {
		return util.ErrTransactionNotFound
	}
	if t.Status != model.TransactionPending {
		return util.ErrTransactionNotPending
	}
	t.Status = model.TransactionFailed
	return nil
}

func (f *fakeTransactionStore) SettleCompleted(id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.txs[id]
	if !ok {
		return util.ErrTransactionNotFound
	}
	if t.Status != model.TransactionPending {
		return util.ErrTransactionNotPending
	}
	sender := f.db.users[t.SenderID]
	receiver := f.db.users[t.ReceiverID]
	if receiver == nil {
		return util.ErrReceiverNotFound
	}
	if sender.Balance.LessThan(t.Amount) {
		return util.ErrInsufficientFunds
	}
	sender.Balance = sender.Balance.Sub(t.Amount)
	receiver.Balance = receiver.Balance.Add(t.Amount)
	t.Status = model.TransactionCompleted
	return nil
}

func adminClaims() *util.Claims {
	return &util.Claims{UserID: 99, Role: model.RoleAdmin}
}

func userClaims(id uint) *util.Claims {
	return &util.Claims{UserID: id, Role: model.RoleUser}
}

func newLedger() (*LedgerService, *fakeTransactionStore) {
	db := newFakeLedgerDB()
	db.addUser(1, "alice", "50.00")
	db.addUser(2, "bob", "10.00")
	txStore := &fakeTransactionStore{db: db}
	return NewLedgerService(&fakeLedgerUserStore{db: db}, txStore), txStore
}

func TestRequestTransferValidation(t *testing.T) {
	svc, _ := newLedger()

	_, err := svc.RequestTransfer(1, 2, decimal.Zero)
	assert.ErrorIs(t, err, util.ErrInvalidAmount)

	_, err = svc.RequestTransfer(1, 2, decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, util.ErrInvalidAmount)

	_, err = svc.RequestTransfer(1, 1, decimal.RequireFromString("5"))
	assert.ErrorIs(t, err, util.ErrSelfTransfer)

	_, err = svc.RequestTransfer(1, 404, decimal.RequireFromString("5"))
	assert.ErrorIs(t, err, util.ErrReceiverNotFound)

	_, err = svc.RequestTransfer(1, 2, decimal.RequireFromString("50.01"))
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)
}

func TestRequestTransferCreatesPendingWithoutMovingBalance(t *testing.T) {
	svc, txStore := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("30.00"))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionPending, tx.Status)
	assert.NotEmpty(t, tx.ID)

	// 请求阶段只登记，不动余额
	balance, err := svc.Balance(1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("50.00")))

	stored, err := txStore.FindByID(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionPending, stored.Status)
}

func TestSettleRequiresAdmin(t *testing.T) {
	svc, _ := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("5.00"))
	require.NoError(t, err)

	err = svc.Settle(tx.ID, model.TransactionCompleted, userClaims(1))
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	err = svc.Settle(tx.ID, model.TransactionCompleted, nil)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestSettleRejectsUnknownStatus(t *testing.T) {
	svc, _ := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("5.00"))
	require.NoError(t, err)

	err = svc.Settle(tx.ID, model.TransactionStatus("refunded"), adminClaims())
	assert.ErrorIs(t, err, util.ErrInvalidStatus)

	// pending 不是合法的结算目标
	err = svc.Settle(tx.ID, model.TransactionPending, adminClaims())
	assert.ErrorIs(t, err, util.ErrInvalidStatus)
}

func TestSettleCompletedMovesBalancesExactlyOnce(t *testing.T) {
	svc, _ := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("30.00"))
	require.NoError(t, err)

	err = svc.Settle(tx.ID, model.TransactionCompleted, adminClaims())
	require.NoError(t, err)

	senderBalance, _ := svc.Balance(1)
	receiverBalance, _ := svc.Balance(2)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("20.00")), "sender balance = %s", senderBalance)
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("40.00")), "receiver balance = %s", receiverBalance)

	// 再次结算同一笔交易必须被拒绝，余额不再变动
	err = svc.Settle(tx.ID, model.TransactionCompleted, adminClaims())
	assert.ErrorIs(t, err, util.ErrTransactionNotPending)

	senderBalance, _ = svc.Balance(1)
	receiverBalance, _ = svc.Balance(2)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("40.00")))
}

func TestSettleFailedLeavesBalancesUntouched(t *testing.T) {
	svc, txStore := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("30.00"))
	require.NoError(t, err)

	err = svc.Settle(tx.ID, model.TransactionFailed, adminClaims())
	require.NoError(t, err)

	senderBalance, _ := svc.Balance(1)
	receiverBalance, _ := svc.Balance(2)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("10.00")))

	stored, _ := txStore.FindByID(tx.ID)
	assert.Equal(t, model.TransactionFailed, stored.Status)

	// 终态交易不可再流转
	err = svc.Settle(tx.ID, model.TransactionCompleted, adminClaims())
	assert.ErrorIs(t, err, util.ErrTransactionNotPending)
}

func TestSettleDriftedBalanceStaysPending(t *testing.T) {
	svc, txStore := newLedger()

	// 请求时余额充足
	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("30.00"))
	require.NoError(t, err)

	// 结算前另一笔转账花掉了大部分余额
	other, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("45.00"))
	require.NoError(t, err)
	require.NoError(t, svc.Settle(other.ID, model.TransactionCompleted, adminClaims()))

	err = svc.Settle(tx.ID, model.TransactionCompleted, adminClaims())
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)

	// 交易保持 pending，两侧余额不变
	stored, _ := txStore.FindByID(tx.ID)
	assert.Equal(t, model.TransactionPending, stored.Status)
	senderBalance, _ := svc.Balance(1)
	receiverBalance, _ := svc.Balance(2)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("55.00")))
}

func TestConcurrentSettleExactlyOneWins(t *testing.T) {
	svc, _ := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("30.00"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Settle(tx.ID, model.TransactionCompleted, adminClaims())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, util.ErrTransactionNotPending)
		}
	}
	assert.Equal(t, 1, wins)

	senderBalance, _ := svc.Balance(1)
	receiverBalance, _ := svc.Balance(2)
	assert.True(t, senderBalance.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, receiverBalance.Equal(decimal.RequireFromString("40.00")))
}

func TestBalanceConservation(t *testing.T) {
	svc, _ := newLedger()

	before1, _ := svc.Balance(1)
	before2, _ := svc.Balance(2)
	total := before1.Add(before2)

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("12.34"))
	require.NoError(t, err)
	require.NoError(t, svc.Settle(tx.ID, model.TransactionCompleted, adminClaims()))

	after1, _ := svc.Balance(1)
	after2, _ := svc.Balance(2)
	assert.True(t, after1.Equal(before1.Sub(decimal.RequireFromString("12.34"))))
	assert.True(t, after2.Equal(before2.Add(decimal.RequireFromString("12.34"))))
	assert.True(t, after1.Add(after2).Equal(total))
}

func TestHistoryDirectionAndCounterparty(t *testing.T) {
	svc, _ := newLedger()

	tx, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	require.NoError(t, svc.Settle(tx.ID, model.TransactionCompleted, adminClaims()))

	sent, err := svc.History(1)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "sent", sent[0].Type)
	assert.Equal(t, "bob", sent[0].Counterparty)
	assert.Equal(t, "completed", sent[0].Status)

	received, err := svc.History(2)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "received", received[0].Type)
	assert.Equal(t, "alice", received[0].Counterparty)
}

func TestTransferHistoryNewestFirst(t *testing.T) {
	svc, _ := newLedger()

	first, err := svc.RequestTransfer(1, 2, decimal.RequireFromString("1.00"))
	require.NoError(t, err)
	second, err := svc.RequestTransfer(2, 1, decimal.RequireFromString("2.00"))
	require.NoError(t, err)

	history, err := svc.History(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, "received", history[0].Type)
	assert.Equal(t, "sent", history[1].Type)
}

func TestSearchUsers(t *testing.T) {
	db := newFakeLedgerDB()
	db.addUser(1, "alice", "0")
	for i := 2; i <= 20; i++ {
		db.addUser(uint(i), fmt.Sprintf("alchemist%02d", i), "0")
	}
	svc := NewLedgerService(&fakeLedgerUserStore{db: db}, &fakeTransactionStore{db: db})

	// 少于两个字符直接返回空
	out, err := svc.SearchUsers("a", 1)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = svc.SearchUsers("  ", 1)
	require.NoError(t, err)
	assert.Empty(t, out)

	// 命中上限 10 条，且不含请求者本人
	out, err = svc.SearchUsers("al", 1)
	require.NoError(t, err)
	assert.Len(t, out, 10)
	for _, u := range out {
		assert.NotEqual(t, uint(1), u.ID)
	}
}

func TestSettleUnknownTransaction(t *testing.T) {
	svc, _ := newLedger()

	err := svc.Settle("tx-missing", model.TransactionCompleted, adminClaims())
	assert.ErrorIs(t, err, util.ErrTransactionNotFound)

	err = svc.Settle("tx-missing", model.TransactionFailed, adminClaims())
	assert.ErrorIs(t, err, util.ErrTransactionNotFound)
}
