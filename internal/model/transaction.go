package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
)

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusVoid      TransactionStatus = "void"
	StatusRefunded  TransactionStatus = "refunded"
)

// Transaction is a committed sale header. Code and CreatedAt are immutable;
// Status may transition completed -> void or completed -> refunded.
type Transaction struct {
	BaseModel
	Code          string            `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id" validate:"uuid_required"`
	User          *User             `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`
	Subtotal      float64           `gorm:"not null" json:"subtotal"`
	Tax           float64           `gorm:"not null" json:"tax"`
	Total         float64           `gorm:"not null" json:"total"` // Always subtotal + tax
	PaymentMethod PaymentMethod     `gorm:"type:varchar(20);not null" json:"payment_method" validate:"required,oneof=cash qris transfer"`
	AmountPaid    float64           `gorm:"not null" json:"amount_paid"`
	ChangeAmount  float64           `gorm:"not null" json:"change_amount"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:completed;index" json:"status"`

	Items []TransactionItem `json:"items,omitempty" validate:"-"`
}

// TransactionItem is one sold line. Immutable once created; product name and
// unit price are snapshotted so later catalog edits do not rewrite history.
type TransactionItem struct {
	BaseModel
	TransactionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     *uuid.UUID `gorm:"type:uuid;index" json:"product_id"` // Nullable: product may be deleted later
	ProductName   string     `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity      int        `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	UnitPrice     float64    `gorm:"not null" json:"unit_price"`
	LineTotal     float64    `gorm:"not null" json:"line_total"` // Always quantity * unit_price
}

// CanTransitionTo reports whether a status change is allowed.
// Only completed transactions can be voided or refunded; both are terminal.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	if t.Status != StatusCompleted {
		return false
	}
	return next == StatusVoid || next == StatusRefunded
}

// TransactionSummary is the list-view shape returned by the ledger search.
type TransactionSummary struct {
	ID            uuid.UUID         `json:"id"`
	Code          string            `json:"code"`
	UserID        uuid.UUID         `json:"user_id"`
	CashierName   string            `json:"cashier_name"`
	Total         float64           `json:"total"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Status        TransactionStatus `json:"status"`
	ItemCount     int               `json:"item_count"`
	CreatedAt     time.Time         `json:"created_at"`
}
