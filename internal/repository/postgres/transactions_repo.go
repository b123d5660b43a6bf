package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/repository"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txCols = `id, amount::text, tx_hash, sender_address, receiver_address, consumer_id, store_id,
	status, refund_tx_hash, created_at, updated_at`

func scanTx(row pgx.Row) (models.Transaction, error) {
	var (
		tx     models.Transaction
		amount string
	)
	err := row.Scan(&tx.ID, &amount, &tx.TxHash, &tx.SenderAddress, &tx.ReceiverAddress,
		&tx.ConsumerID, &tx.StoreID, &tx.Status, &tx.RefundTxHash, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return models.Transaction{}, mapErr(err)
	}
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	return tx, nil
}

func (r *transactionsRepo) Create(ctx context.Context, in repository.NewTransaction) (models.Transaction, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return models.Transaction{}, err
	}
	// no ON CONFLICT clause: a second report of the same hash must fail
	return scanTx(r.pool.QueryRow(ctx,
		`INSERT INTO transactions (
		   id, amount, tx_hash, sender_address, receiver_address, consumer_id, store_id, status
		 ) VALUES ($1, $2::text::numeric, $3, $4, $5, $6, $7, $8)
		 RETURNING `+txCols,
		id.String(), in.Amount.String(), in.TxHash, in.SenderAddress, in.ReceiverAddress,
		in.ConsumerID, in.StoreID, models.TxnPending,
	))
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Transaction{}, models.ErrNotFound
	}
	return scanTx(r.pool.QueryRow(ctx,
		`SELECT `+txCols+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	column := "sender_address"
	if f.Role == models.RoleStore {
		column = "receiver_address"
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+txCols+`
		   FROM transactions
		  WHERE `+column+`=$1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		f.WalletAddress, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) UpdateStatusIfPending(ctx context.Context, id string, to models.TransactionStatus) (models.Transaction, error) {
	tx, err := scanTx(r.pool.QueryRow(ctx,
		`UPDATE transactions
		    SET status=$2, updated_at=now()
		  WHERE id=$1 AND status=$3
		  RETURNING `+txCols,
		id, to, models.TxnPending,
	))
	return tx, r.guardMiss(ctx, id, err)
}

func (r *transactionsRepo) SetRefundIfPending(ctx context.Context, id, refundHash string) (models.Transaction, error) {
	tx, err := scanTx(r.pool.QueryRow(ctx,
		`UPDATE transactions
		    SET refund_tx_hash=$2, status=$3, updated_at=now()
		  WHERE id=$1 AND status=$4
		    AND NOT EXISTS (SELECT 1 FROM transactions WHERE tx_hash=$2)
		  RETURNING `+txCols,
		id, refundHash, models.TxnRejected, models.TxnPending,
	))
	if errors.Is(err, models.ErrNotFound) {
		if exists, herr := r.HashExists(ctx, refundHash); herr == nil && exists {
			return models.Transaction{}, models.ErrDuplicate
		}
	}
	return tx, r.guardMiss(ctx, id, err)
}

// guardMiss tells a missing row apart from a row whose status guard failed.
func (r *transactionsRepo) guardMiss(ctx context.Context, id string, err error) error {
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return gerr
	}
	return models.ErrNotPending
}

func (r *transactionsRepo) HashExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE tx_hash=$1 OR refund_tx_hash=$1)`,
		hash,
	).Scan(&exists)
	return exists, err
}
