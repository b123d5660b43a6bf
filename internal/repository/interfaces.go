package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type Consumers interface {
	Create(ctx context.Context, c models.Consumer) (models.Consumer, error)
	GetByWallet(ctx context.Context, wallet string) (models.Consumer, error)
	Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Consumer, error)
}

type Stores interface {
	Create(ctx context.Context, s models.Store) (models.Store, error)
	GetByWallet(ctx context.Context, wallet string) (models.Store, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (models.Store, error)
	Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Store, error)
	SetQRCode(ctx context.Context, id, qr string) error
}

// Identities answers "which role does this wallet hold" with one lookup.
type Identities interface {
	Resolve(ctx context.Context, wallet string) (models.Identity, error)
}

type NewTransaction struct {
	Amount          decimal.Decimal
	TxHash          string
	SenderAddress   string
	ReceiverAddress string
	ConsumerID      string
	StoreID         string
}

type Transactions interface {
	// Create fails with models.ErrDuplicate when the hash is already recorded.
	Create(ctx context.Context, in NewTransaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)

	// UpdateStatusIfPending applies the transition only while the stored status
	// is still PENDING and returns models.ErrNotPending otherwise.
	UpdateStatusIfPending(ctx context.Context, id string, to models.TransactionStatus) (models.Transaction, error)

	// SetRefundIfPending stores the refund hash and forces REJECTED under the
	// same guard. A refund hash already used anywhere yields models.ErrDuplicate.
	SetRefundIfPending(ctx context.Context, id, refundHash string) (models.Transaction, error)

	HashExists(ctx context.Context, hash string) (bool, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Repositories groups every store implementation behind one value so the
// postgres and sqlite backends can be swapped at start-up.
type Repositories struct {
	Consumers    Consumers
	Stores       Stores
	Identities   Identities
	Transactions Transactions
	AuditLogs    AuditLogs
}
