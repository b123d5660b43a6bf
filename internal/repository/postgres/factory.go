package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/qrpay-backend/internal/repository"
)

func NewRepositories(pool *pgxpool.Pool) repository.Repositories {
	return repository.Repositories{
		Consumers:    &consumersRepo{pool},
		Stores:       &storesRepo{pool},
		Identities:   &identitiesRepo{pool},
		Transactions: &transactionsRepo{pool},
		AuditLogs:    &auditLogsRepo{pool},
	}
}
