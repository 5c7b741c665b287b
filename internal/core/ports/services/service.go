package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Ledger      LedgerSvcFacade
	Pool        PoolSvcFacade
	Attribution AttributionSvcFacade
	Debt        DebtSvcFacade
	TipOut      TipOutSvcFacade
	Bank        BankSvcFacade
	Location    LocationSvcFacade
	Employee    EmployeeSvcFacade
	Shift       ShiftSvcFacade
	Auth        AuthSvcFacade
	Token       TerminalTokenSvcFacade
}
