// Package memory provides an in-process implementation of the repository
// ports. It backs the test suite and local development without Postgres,
// honoring the same atomicity contract as the pgsql package: one store-wide
// write lock serializes posting units, and RunInTx rolls the touched tables
// back to a snapshot when the unit fails.
package memory

import (
	"sync"

	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
)

// Store holds every table in plain maps keyed by primary key. Secondary
// uniqueness (idempotency keys, one payment per location) is kept in index
// maps so replay lookups stay O(1) like their unique-index counterparts.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]domain.LedgerAccount
	entries      map[string]domain.LedgerEntry
	entryByKey   map[string]string
	transactions map[string]domain.TipTransaction
	txnByPayment map[paymentKey]string
	debts        map[string]domain.TipDebt
	shares       map[string]domain.BankedShare
	shareByKey   map[string]string

	pools       map[string]domain.TipPool
	memberships map[string]domain.PoolMembership
	segments    map[string]domain.PoolSegment

	locations map[string]domain.Location
	employees map[string]domain.Employee
	shifts    map[string]domain.Shift
	rules     map[string]domain.TipOutRule
	tokens    map[string]domain.TerminalToken
	users     map[string]domain.User
}

type paymentKey struct {
	LocationID string
	PaymentID  string
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.LedgerAccount),
		entries:      make(map[string]domain.LedgerEntry),
		entryByKey:   make(map[string]string),
		transactions: make(map[string]domain.TipTransaction),
		txnByPayment: make(map[paymentKey]string),
		debts:        make(map[string]domain.TipDebt),
		shares:       make(map[string]domain.BankedShare),
		shareByKey:   make(map[string]string),
		pools:        make(map[string]domain.TipPool),
		memberships:  make(map[string]domain.PoolMembership),
		segments:     make(map[string]domain.PoolSegment),
		locations:    make(map[string]domain.Location),
		employees:    make(map[string]domain.Employee),
		shifts:       make(map[string]domain.Shift),
		rules:        make(map[string]domain.TipOutRule),
		tokens:       make(map[string]domain.TerminalToken),
		users:        make(map[string]domain.User),
	}
}

// NewRepositoryProvider builds a provider backed by one fresh store.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return NewStore().Provider()
}

// Provider exposes the store through the same facade set the pgsql package
// returns, so either storage wires into the service container unchanged.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:   &ledgerStore{Store: s},
		PoolRepo:     &poolStore{Store: s},
		RuleRepo:     s,
		LocationRepo: s,
		EmployeeRepo: s,
		ShiftRepo:    s,
		UserRepo:     s,
		TokenRepo:    s,
	}
}

var (
	_ portsrepo.LedgerRepositoryFacade        = (*ledgerStore)(nil)
	_ portsrepo.PoolRepositoryFacade          = (*poolStore)(nil)
	_ portsrepo.TipOutRuleRepositoryFacade    = (*Store)(nil)
	_ portsrepo.LocationRepositoryFacade      = (*Store)(nil)
	_ portsrepo.EmployeeRepositoryFacade      = (*Store)(nil)
	_ portsrepo.ShiftRepositoryFacade         = (*Store)(nil)
	_ portsrepo.UserRepositoryFacade          = (*Store)(nil)
	_ portsrepo.TerminalTokenRepositoryFacade = (*Store)(nil)
)

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
