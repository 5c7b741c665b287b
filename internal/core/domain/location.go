package domain

// Location represents a single restaurant site. Every engine operation is
// scoped to one location; employees, pools and ledger accounts never cross it.
type Location struct {
	LocationID   string `json:"locationID"`   // Primary Key (UUID)
	Name         string `json:"name"`         // Display name, e.g. "Downtown"
	Timezone     string `json:"timezone"`     // IANA name, used by closeout tooling
	CurrencyCode string `json:"currencyCode"` // ISO 4217, single currency per location
	IsActive     bool   `json:"isActive"`
	AuditFields
}
