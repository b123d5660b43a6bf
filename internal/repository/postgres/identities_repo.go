package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

type identitiesRepo struct{ pool *pgxpool.Pool }

// Resolve decides the role of a wallet with one query over both profile
// tables, then loads the matching profile.
func (r *identitiesRepo) Resolve(ctx context.Context, wallet string) (models.Identity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT 'consumer' AS role, wallet_address FROM consumers WHERE wallet_address=$1
		 UNION ALL
		 SELECT 'store' AS role, wallet_address FROM stores WHERE wallet_address=$1`,
		wallet,
	)
	if err != nil {
		return models.Identity{}, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role, addr string
		if err := rows.Scan(&role, &addr); err != nil {
			return models.Identity{}, err
		}
		roles = append(roles, models.Role(role))
	}
	if err := rows.Err(); err != nil {
		return models.Identity{}, err
	}

	switch {
	case len(roles) == 0:
		return models.Identity{Role: models.RoleUnregistered}, nil
	case len(roles) > 1:
		// registration refuses a second role, so this is data corruption
		return models.Identity{}, models.ErrDuplicate
	case roles[0] == models.RoleConsumer:
		c, err := (&consumersRepo{r.pool}).GetByWallet(ctx, wallet)
		if err != nil {
			return models.Identity{}, err
		}
		return models.Identity{Role: models.RoleConsumer, Consumer: &c}, nil
	default:
		s, err := (&storesRepo{r.pool}).GetByWallet(ctx, wallet)
		if err != nil {
			return models.Identity{}, err
		}
		return models.Identity{Role: models.RoleStore, Store: &s}, nil
	}
}
