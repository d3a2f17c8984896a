// Package rbac defines the fixed permission vocabulary, immutable roles, and
// the role registry that answers "does role R grant permission P".
//
// Roles are referenced from administrators by id only (foreign-key style).
// Permission resolution always goes administrator → role ids → registry
// lookup → permission union, so a role's permission set is never embedded
// and never goes stale.
package rbac

// Permission is an opaque, stable string-identified capability token.
// Comparable by value; drawn from a closed vocabulary per realm. The
// administrator realm and the end-user realm use separate vocabularies and
// separate registries; the two are never mixed.
type Permission string

// Administrator realm.
const (
	// Client operations.
	PermCreateClient Permission = "create_client"
	PermViewClient   Permission = "view_client"
	PermUpdateClient Permission = "update_client"
	PermDeleteClient Permission = "delete_client"
	PermEnableClient Permission = "enable_client"

	// Admin operations.
	PermCreateAdmin  Permission = "create_admin"
	PermViewAdmin    Permission = "view_admin"
	PermUpdateAdmin  Permission = "update_admin" // includes role assignment
	PermDisableAdmin Permission = "disable_admin"
	PermDeleteAdmin  Permission = "delete_admin"

	// Task operations (for executors).
	PermExecuteTask1 Permission = "execute_task_1"
	PermExecuteTask2 Permission = "execute_task_2"
	PermExecuteTask3 Permission = "execute_task_3"

	// System operations.
	PermViewAuditLog Permission = "view_audit_log"
	PermExportData   Permission = "export_data"
)

// End-user realm. Kept separate from administrator permissions; only the
// user registry seeds roles from this vocabulary.
const (
	UserPermCreateTicket    Permission = "create_ticket"
	UserPermViewOwnTicket   Permission = "view_own_ticket"
	UserPermUpdateOwnTicket Permission = "update_own_ticket"
	UserPermDeleteOwnTicket Permission = "delete_own_ticket"
	UserPermViewAnyTicket   Permission = "view_any_ticket"
	UserPermDeleteAnyTicket Permission = "delete_any_ticket"
)

func (p Permission) String() string { return string(p) }

var clientPermissions = []Permission{
	PermCreateClient, PermViewClient, PermUpdateClient, PermDeleteClient, PermEnableClient,
}

var adminPermissions = []Permission{
	PermCreateAdmin, PermViewAdmin, PermUpdateAdmin, PermDisableAdmin, PermDeleteAdmin,
}
