package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type consumersRepo struct{ pool *pgxpool.Pool }

const consumerCols = `id, wallet_address, name, description, created_at, updated_at`

func scanConsumer(row pgx.Row) (models.Consumer, error) {
	var c models.Consumer
	err := row.Scan(&c.ID, &c.WalletAddress, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, mapErr(err)
}

func (r *consumersRepo) Create(ctx context.Context, c models.Consumer) (models.Consumer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return scanConsumer(r.pool.QueryRow(ctx,
		`INSERT INTO consumers(id, wallet_address, name, description)
		 VALUES($1,$2,$3,$4)
		 RETURNING `+consumerCols,
		c.ID, c.WalletAddress, c.Name, c.Description,
	))
}

func (r *consumersRepo) GetByWallet(ctx context.Context, wallet string) (models.Consumer, error) {
	return scanConsumer(r.pool.QueryRow(ctx,
		`SELECT `+consumerCols+` FROM consumers WHERE wallet_address=$1`, wallet))
}

func (r *consumersRepo) Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Consumer, error) {
	return scanConsumer(r.pool.QueryRow(ctx,
		`UPDATE consumers
		    SET name        = COALESCE($2, name),
		        description = COALESCE($3, description),
		        updated_at  = now()
		  WHERE wallet_address = $1
		  RETURNING `+consumerCols,
		wallet, u.Name, u.Description,
	))
}
