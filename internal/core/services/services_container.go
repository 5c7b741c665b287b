package services

import (
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The ledger service comes first: location and employee provisioning
	// depend on it for account creation.
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.EmployeeRepo)

	container.Location = NewLocationService(repos.LocationRepo, container.Ledger)
	container.Employee = NewEmployeeService(repos.EmployeeRepo, repos.LocationRepo, container.Ledger)
	container.Shift = NewShiftService(repos.ShiftRepo, repos.EmployeeRepo)
	container.Pool = NewPoolService(repos.PoolRepo, repos.EmployeeRepo)
	container.TipOut = NewTipOutService(repos.RuleRepo)
	container.Attribution = NewAttributionService(cfg, repos.LedgerRepo, repos.PoolRepo, repos.RuleRepo, repos.EmployeeRepo, repos.ShiftRepo)
	container.Debt = NewDebtService(repos.LedgerRepo)
	container.Bank = NewBankService(repos.LedgerRepo, repos.ShiftRepo)
	container.Auth = NewAuthService(cfg, repos.UserRepo, repos.LocationRepo, repos.EmployeeRepo)
	container.Token = NewTerminalTokenService(repos.TokenRepo)

	return container
}
