package sqlite

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type consumerRow struct {
	ID            string `gorm:"primaryKey"`
	WalletAddress string `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"not null"`
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (consumerRow) TableName() string { return "consumers" }

func (r consumerRow) model() models.Consumer {
	return models.Consumer{
		ID:            r.ID,
		WalletAddress: r.WalletAddress,
		Name:          r.Name,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type storeRow struct {
	ID            string `gorm:"primaryKey"`
	WalletAddress string `gorm:"uniqueIndex;not null"`
	UniqueID      string `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"not null"`
	Description   string
	EventLink     *string
	QRCode        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (storeRow) TableName() string { return "stores" }

func (r storeRow) model() models.Store {
	return models.Store{
		ID:            r.ID,
		WalletAddress: r.WalletAddress,
		UniqueID:      r.UniqueID,
		Name:          r.Name,
		Description:   r.Description,
		EventLink:     r.EventLink,
		QRCode:        r.QRCode,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// txRow keeps the amount as text so sqlite never turns it into a float.
type txRow struct {
	ID              string  `gorm:"primaryKey"`
	Amount          string  `gorm:"type:text;not null"`
	TxHash          string  `gorm:"uniqueIndex;not null"`
	SenderAddress   string  `gorm:"index;not null"`
	ReceiverAddress string  `gorm:"index;not null"`
	ConsumerID      string  `gorm:"not null"`
	StoreID         string  `gorm:"not null"`
	Status          string  `gorm:"not null;default:PENDING"`
	RefundTxHash    *string `gorm:"uniqueIndex"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (txRow) TableName() string { return "transactions" }

func (r txRow) model() (models.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	return models.Transaction{
		ID:              r.ID,
		Amount:          amount,
		TxHash:          r.TxHash,
		SenderAddress:   r.SenderAddress,
		ReceiverAddress: r.ReceiverAddress,
		ConsumerID:      r.ConsumerID,
		StoreID:         r.StoreID,
		Status:          models.TransactionStatus(r.Status),
		RefundTxHash:    r.RefundTxHash,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

type auditRow struct {
	ID         string `gorm:"primaryKey"`
	EntityType string `gorm:"not null"`
	EntityID   string `gorm:"index;not null"`
	Action     string `gorm:"not null"`
	Actor      string
	Details    string
	CreatedAt  time.Time
}

func (auditRow) TableName() string { return "audit_logs" }

func newAuditRow(l models.AuditLog) (auditRow, error) {
	var details []byte
	if l.Details != nil {
		var err error
		if details, err = json.Marshal(l.Details); err != nil {
			return auditRow{}, err
		}
	}
	return auditRow{
		ID:         l.ID,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Action:     l.Action,
		Actor:      l.Actor,
		Details:    string(details),
	}, nil
}
