package domain

// Principal is the authenticated caller of a ledger operation.
type Principal struct {
	Subject    string
	Role       Role
	CustomerID string
}

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin can do everything, including ledger-wide consistency checks
	RoleAdmin Role = "admin"

	// RoleOperator can credit, debit and read any customer's ledger
	RoleOperator Role = "operator"

	// RoleCustomer can only read its own ledger
	RoleCustomer Role = "customer"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleCustomer: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanRead reports whether p may read customerID's ledger.
// A nil principal means authentication is disabled.
func (p *Principal) CanRead(customerID string) bool {
	if p == nil {
		return true
	}
	switch p.Role {
	case RoleAdmin, RoleOperator:
		return true
	case RoleCustomer:
		return p.CustomerID != "" && p.CustomerID == customerID
	}
	return false
}

// CanWrite reports whether p may apply credits and debits to customerID.
func (p *Principal) CanWrite(customerID string) bool {
	if p == nil {
		return true
	}
	return p.Role == RoleAdmin || p.Role == RoleOperator
}

// CanAudit reports whether p may run ledger-wide consistency checks.
func (p *Principal) CanAudit() bool {
	return p == nil || p.Role == RoleAdmin
}
