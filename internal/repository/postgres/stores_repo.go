package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type storesRepo struct{ pool *pgxpool.Pool }

const storeCols = `id, wallet_address, unique_id, name, description, event_link, qr_code, created_at, updated_at`

func scanStore(row pgx.Row) (models.Store, error) {
	var s models.Store
	err := row.Scan(&s.ID, &s.WalletAddress, &s.UniqueID, &s.Name, &s.Description,
		&s.EventLink, &s.QRCode, &s.CreatedAt, &s.UpdatedAt)
	return s, mapErr(err)
}

func (r *storesRepo) Create(ctx context.Context, s models.Store) (models.Store, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return scanStore(r.pool.QueryRow(ctx,
		`INSERT INTO stores(id, wallet_address, unique_id, name, description, event_link, qr_code)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+storeCols,
		s.ID, s.WalletAddress, s.UniqueID, s.Name, s.Description, s.EventLink, s.QRCode,
	))
}

func (r *storesRepo) GetByWallet(ctx context.Context, wallet string) (models.Store, error) {
	return scanStore(r.pool.QueryRow(ctx,
		`SELECT `+storeCols+` FROM stores WHERE wallet_address=$1`, wallet))
}

func (r *storesRepo) GetByUniqueID(ctx context.Context, uniqueID string) (models.Store, error) {
	return scanStore(r.pool.QueryRow(ctx,
		`SELECT `+storeCols+` FROM stores WHERE unique_id=$1`, uniqueID))
}

func (r *storesRepo) Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Store, error) {
	return scanStore(r.pool.QueryRow(ctx,
		`UPDATE stores
		    SET name        = COALESCE($2, name),
		        description = COALESCE($3, description),
		        event_link  = CASE WHEN $4::text IS NULL THEN event_link
		                           WHEN $4::text = '' THEN NULL
		                           ELSE $4::text END,
		        updated_at  = now()
		  WHERE wallet_address = $1
		  RETURNING `+storeCols,
		wallet, u.Name, u.Description, u.EventLink,
	))
}

func (r *storesRepo) SetQRCode(ctx context.Context, id, qr string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE stores SET qr_code=$2, updated_at=now() WHERE id=$1`, id, qr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
