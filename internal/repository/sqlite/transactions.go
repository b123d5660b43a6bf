package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/repository"
)

type transactionsRepo struct{ db *gorm.DB }

func (r *transactionsRepo) Create(ctx context.Context, in repository.NewTransaction) (models.Transaction, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return models.Transaction{}, err
	}
	row := txRow{
		ID:              id.String(),
		Amount:          in.Amount.String(),
		TxHash:          in.TxHash,
		SenderAddress:   in.SenderAddress,
		ReceiverAddress: in.ReceiverAddress,
		ConsumerID:      in.ConsumerID,
		StoreID:         in.StoreID,
		Status:          string(models.TxnPending),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Transaction{}, mapErr(err)
	}
	return row.model()
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	var row txRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Transaction{}, mapErr(err)
	}
	return row.model()
}

func (r *transactionsRepo) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	column := "sender_address"
	if f.Role == models.RoleStore {
		column = "receiver_address"
	}
	var rows []txRow
	err := r.db.WithContext(ctx).
		Where(column+" = ?", f.WalletAddress).
		Order("created_at DESC").Order("id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *transactionsRepo) UpdateStatusIfPending(ctx context.Context, id string, to models.TransactionStatus) (models.Transaction, error) {
	res := r.db.WithContext(ctx).Model(&txRow{}).
		Where("id = ? AND status = ?", id, models.TxnPending).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now()})
	if res.Error != nil {
		return models.Transaction{}, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Transaction{}, r.guardMiss(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *transactionsRepo) SetRefundIfPending(ctx context.Context, id, refundHash string) (models.Transaction, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&txRow{}).Where("tx_hash = ? OR refund_tx_hash = ?", refundHash, refundHash).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return models.ErrDuplicate
		}
		res := tx.Model(&txRow{}).
			Where("id = ? AND status = ?", id, models.TxnPending).
			Updates(map[string]any{
				"refund_tx_hash": refundHash,
				"status":         string(models.TxnRejected),
				"updated_at":     time.Now(),
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.Transaction{}, err
		}
		return models.Transaction{}, mapErr(err)
	}
	if affected == 0 {
		return models.Transaction{}, r.guardMiss(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *transactionsRepo) guardMiss(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return models.ErrNotPending
}

func (r *transactionsRepo) HashExists(ctx context.Context, hash string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&txRow{}).
		Where("tx_hash = ? OR refund_tx_hash = ?", hash, hash).
		Count(&n).Error
	return n > 0, mapErr(err)
}
