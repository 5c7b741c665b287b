package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	ledgerRepo := newPgxLedgerRepository(dbPool)
	poolRepo := newPgxPoolRepository(dbPool)
	ruleRepo := newPgxRuleRepository(dbPool)
	locationRepo := newPgxLocationRepository(dbPool)
	employeeRepo := newPgxEmployeeRepository(dbPool)
	shiftRepo := newPgxShiftRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	tokenRepo := newPgxTokenRepository(dbPool)

	return portsrepo.RepositoryProvider{
		LedgerRepo:   ledgerRepo,
		PoolRepo:     poolRepo,
		RuleRepo:     ruleRepo,
		LocationRepo: locationRepo,
		EmployeeRepo: employeeRepo,
		ShiftRepo:    shiftRepo,
		UserRepo:     userRepo,
		TokenRepo:    tokenRepo,
	}
}
