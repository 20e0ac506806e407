package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Username  string          `gorm:"size:100;unique;not null" json:"username"`
	Email     string          `gorm:"size:100;unique;not null" json:"email"`
	Password  string          `gorm:"size:100;not null" json:"-"`
	Role      UserRole        `gorm:"type:enum('user','admin');default:'user'" json:"role"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	LastLogin time.Time       `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
