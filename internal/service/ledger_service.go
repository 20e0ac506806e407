package service

import (
	"errors"
	"iqtest_backend/internal/model"
	"iqtest_backend/internal/util"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerUserStore interface {
	FindByID(id uint) (*model.User, error)
	SearchByUsername(prefix string, excludeID uint, limit int) ([]model.User, error)
}

type TransactionStore interface {
	Create(t *model.Transaction) error
	FindByID(id string) (*model.Transaction, error)
	ListByUser(userID uint) ([]model.Transaction, error)
	ListAll() ([]model.Transaction, error)
	MarkFailed(id string) error
	SettleCompleted(id string) error
}

const searchResultLimit = 10

type LedgerService struct {
	Users        LedgerUserStore
	Transactions TransactionStore
}

func NewLedgerService(users LedgerUserStore, transactions TransactionStore) *LedgerService {
	return &LedgerService{
		Users:        users,
		Transactions: transactions,
	}
}

// RequestTransfer 登记一笔待审批转账。此处的余额校验只是请求时点的
// 参考——不冻结、不预留，发起到结算之间余额可能被其它转账改变，
// 结算时会在同一事务里重新校验。
func (s *LedgerService) RequestTransfer(senderID, receiverID uint, amount decimal.Decimal) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, util.ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, util.ErrSelfTransfer
	}

	if _, err := s.Users.FindByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrReceiverNotFound
		}
		return nil, err
	}

	sender, err := s.Users.FindByID(senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	if sender.Balance.LessThan(amount) {
		return nil, util.ErrInsufficientFunds
	}

	t := &model.Transaction{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     model.TransactionPending,
	}
	if err := s.Transactions.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Settle 管理员审批：completed 原子划转余额，failed 仅流转状态。
// 余额不足时交易保持 pending，管理员可等余额变化后重试或显式置 failed。
func (s *LedgerService) Settle(transactionID string, status model.TransactionStatus, actingAdmin *util.Claims) error {
	if actingAdmin == nil || !actingAdmin.IsAdmin() {
		return util.ErrPermissionDenied
	}

	switch status {
	case model.TransactionCompleted:
		return s.Transactions.SettleCompleted(transactionID)
	case model.TransactionFailed:
		return s.Transactions.MarkFailed(transactionID)
	default:
		return util.ErrInvalidStatus
	}
}

func (s *LedgerService) Balance(userID uint) (decimal.Decimal, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, util.ErrUserNotFound
		}
		return decimal.Zero, err
	}
	return user.Balance, nil
}

type TransferRecord struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"` // sent | received
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (s *LedgerService) History(userID uint) ([]TransferRecord, error) {
	txs, err := s.Transactions.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	records := make([]TransferRecord, len(txs))
	for i, t := range txs {
		record := TransferRecord{
			ID:        t.ID,
			Amount:    t.Amount,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
		}
		if t.SenderID == userID {
			record.Type = "sent"
			if t.Receiver != nil {
				record.Counterparty = t.Receiver.Username
			}
		} else {
			record.Type = "received"
			if t.Sender != nil {
				record.Counterparty = t.Sender.Username
			}
		}
		records[i] = record
	}
	return records, nil
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// SearchUsers 供转账对象选择的用户检索。不足两个字符直接返回空，
// 结果最多 10 条且不含请求者本人。
func (s *LedgerService) SearchUsers(query string, requesterID uint) ([]UserSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []UserSummary{}, nil
	}

	users, err := s.Users.SearchByUsername(query, requesterID, searchResultLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, len(users))
	for i, u := range users {
		summaries[i] = UserSummary{ID: u.ID, Username: u.Username}
	}
	return summaries, nil
}

type AdminTransactionRecord struct {
	ID        string          `json:"id"`
	Sender    string          `json:"sender"`
	Receiver  string          `json:"receiver"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (s *LedgerService) AllTransactions() ([]AdminTransactionRecord, error) {
	txs, err := s.Transactions.ListAll()
	if err != nil {
		return nil, err
	}

	records := make([]AdminTransactionRecord, len(txs))
	for i, t := range txs {
		record := AdminTransactionRecord{
			ID:        t.ID,
			Amount:    t.Amount,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
		}
		if t.Sender != nil {
			record.Sender = t.Sender.Username
		}
		if t.Receiver != nil {
			record.Receiver = t.Receiver.Username
		}
		records[i] = record
	}
	return records, nil
}
