package repository

import (
	"errors"
	"iqtest_backend/internal/model"
	"iqtest_backend/internal/util"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	DB *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

func (r *TransactionRepository) Create(t *model.Transaction) error {
	return r.DB.Create(t).Error
}

func (r *TransactionRepository) FindByID(id string) (*model.Transaction, error) {
	var t model.Transaction
	err := r.DB.First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTransactionNotFound
	}
	return &t, err
}

func (r *TransactionRepository) ListByUser(userID uint) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.DB.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc").
		Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) ListAll() ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.DB.Preload("Sender").Preload("Receiver").
		Order("created_at desc").
		Find(&txs).Error
	return txs, err
}

// MarkFailed pending → failed，不动余额。
// 条件更新保证终态交易不会被覆盖。
func (r *TransactionRepository) MarkFailed(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", id, model.TransactionPending).
			Update("status", model.TransactionFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return settleMiss(tx, id)
		}
		return nil
	})
}

// SettleCompleted pending → completed 并划转余额，三个写操作在同一
// 事务内完成。状态行的条件更新是并发结算的串行化点：输家要么看到
// 交易已离开 pending，要么在扣款守卫（balance >= amount）上失败，
// 失败时整个事务回滚，交易保持 pending。
func (r *TransactionRepository) SettleCompleted(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", id, model.TransactionPending).
			Update("status", model.TransactionCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return settleMiss(tx, id)
		}

		var t model.Transaction
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return err
		}

		debit := tx.Model(&model.User{}).
			Where("id = ? AND balance >= ?", t.SenderID, t.Amount).
			Update("balance", gorm.Expr("balance - ?", t.Amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return util.ErrInsufficientFunds
		}

		credit := tx.Model(&model.User{}).
			Where("id = ?", t.ReceiverID).
			Update("balance", gorm.Expr("balance + ?", t.Amount))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return util.ErrReceiverNotFound
		}
		return nil
	})
}

// settleMiss 条件更新没有命中时区分“交易不存在”和“已是终态”
func settleMiss(tx *gorm.DB, id string) error {
	var t model.Transaction
	if err := tx.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTransactionNotFound
		}
		return err
	}
	return util.ErrTransactionNotPending
}
