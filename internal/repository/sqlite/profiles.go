package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type consumersRepo struct{ db *gorm.DB }

func (r *consumersRepo) Create(ctx context.Context, c models.Consumer) (models.Consumer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := consumerRow{ID: c.ID, WalletAddress: c.WalletAddress, Name: c.Name, Description: c.Description}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Consumer{}, mapErr(err)
	}
	return row.model(), nil
}

func (r *consumersRepo) GetByWallet(ctx context.Context, wallet string) (models.Consumer, error) {
	var row consumerRow
	err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&row).Error
	return row.model(), mapErr(err)
}

func (r *consumersRepo) Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Consumer, error) {
	changes := map[string]any{"updated_at": time.Now()}
	if u.Name != nil {
		changes["name"] = *u.Name
	}
	if u.Description != nil {
		changes["description"] = *u.Description
	}
	res := r.db.WithContext(ctx).Model(&consumerRow{}).Where("wallet_address = ?", wallet).Updates(changes)
	if res.Error != nil {
		return models.Consumer{}, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Consumer{}, models.ErrNotFound
	}
	return r.GetByWallet(ctx, wallet)
}

type storesRepo struct{ db *gorm.DB }

func (r *storesRepo) Create(ctx context.Context, s models.Store) (models.Store, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := storeRow{
		ID:            s.ID,
		WalletAddress: s.WalletAddress,
		UniqueID:      s.UniqueID,
		Name:          s.Name,
		Description:   s.Description,
		EventLink:     s.EventLink,
		QRCode:        s.QRCode,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Store{}, mapErr(err)
	}
	return row.model(), nil
}

func (r *storesRepo) get(ctx context.Context, column, value string) (models.Store, error) {
	var row storeRow
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&row).Error
	return row.model(), mapErr(err)
}

func (r *storesRepo) GetByWallet(ctx context.Context, wallet string) (models.Store, error) {
	return r.get(ctx, "wallet_address", wallet)
}

func (r *storesRepo) GetByUniqueID(ctx context.Context, uniqueID string) (models.Store, error) {
	return r.get(ctx, "unique_id", uniqueID)
}

func (r *storesRepo) Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Store, error) {
	changes := map[string]any{"updated_at": time.Now()}
	if u.Name != nil {
		changes["name"] = *u.Name
	}
	if u.Description != nil {
		changes["description"] = *u.Description
	}
	if u.EventLink != nil {
		if *u.EventLink == "" {
			changes["event_link"] = nil
		} else {
			changes["event_link"] = *u.EventLink
		}
	}
	res := r.db.WithContext(ctx).Model(&storeRow{}).Where("wallet_address = ?", wallet).Updates(changes)
	if res.Error != nil {
		return models.Store{}, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Store{}, models.ErrNotFound
	}
	return r.GetByWallet(ctx, wallet)
}

func (r *storesRepo) SetQRCode(ctx context.Context, id, qr string) error {
	res := r.db.WithContext(ctx).Model(&storeRow{}).Where("id = ?", id).
		Updates(map[string]any{"qr_code": qr, "updated_at": time.Now()})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

type identitiesRepo struct{ db *gorm.DB }

func (r *identitiesRepo) Resolve(ctx context.Context, wallet string) (models.Identity, error) {
	var (
		consumers []consumerRow
		stores    []storeRow
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_address = ?", wallet).Limit(1).Find(&consumers).Error; err != nil {
			return err
		}
		return tx.Where("wallet_address = ?", wallet).Limit(1).Find(&stores).Error
	})
	if err != nil {
		return models.Identity{}, mapErr(err)
	}

	switch {
	case len(consumers) > 0 && len(stores) > 0:
		return models.Identity{}, models.ErrDuplicate
	case len(consumers) > 0:
		c := consumers[0].model()
		return models.Identity{Role: models.RoleConsumer, Consumer: &c}, nil
	case len(stores) > 0:
		s := stores[0].model()
		return models.Identity{Role: models.RoleStore, Store: &s}, nil
	}
	return models.Identity{Role: models.RoleUnregistered}, nil
}

type auditLogsRepo struct{ db *gorm.DB }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	row, err := newAuditRow(l)
	if err != nil {
		return err
	}
	return mapErr(r.db.WithContext(ctx).Create(&row).Error)
}
