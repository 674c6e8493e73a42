package model

// Role codes as constants
type Role string

const (
	RoleAdmin Role = "admin"
	RoleKasir Role = "kasir"
)

// Action identifies a capability that can be checked against a role.
type Action string

const (
	ActionProductView        Action = "product:view"
	ActionProductCreate      Action = "product:create"
	ActionProductUpdate      Action = "product:update"
	ActionCheckoutCreate     Action = "checkout:create"
	ActionTransactionViewAll Action = "transaction:view_all"
	ActionTransactionViewOwn Action = "transaction:view_own"
	ActionTransactionVoid    Action = "transaction:void"
	ActionTransactionRefund  Action = "transaction:refund"
	ActionReportView         Action = "report:view"
)

// roleCapabilities is the single source of truth for authorization.
// Every handler and service goes through Can; no ad hoc role branches.
var roleCapabilities = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionProductView:        true,
		ActionProductCreate:      true,
		ActionProductUpdate:      true,
		ActionCheckoutCreate:     true,
		ActionTransactionViewAll: true,
		ActionTransactionViewOwn: true,
		ActionTransactionVoid:    true,
		ActionTransactionRefund:  true,
		ActionReportView:         true,
	},
	RoleKasir: {
		ActionProductView:        true,
		ActionCheckoutCreate:     true,
		ActionTransactionViewOwn: true,
	},
}

// Can reports whether a role is allowed to perform an action.
func Can(role Role, action Action) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	return caps[action]
}
