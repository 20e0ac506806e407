package model

import "github.com/shopspring/decimal"

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction 余额转账记录。状态只能从 pending 单向流转到
// completed/failed，终态不可再变更。
// swagger:model Transaction
type Transaction struct {
	UUIDBase
	SenderID   uint              `gorm:"index;type:bigint unsigned;not null" json:"senderId"`
	ReceiverID uint              `gorm:"index;type:bigint unsigned;not null" json:"receiverId"`
	Amount     decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status     TransactionStatus `gorm:"type:enum('pending','completed','failed');default:'pending'" json:"status"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
