// Package authz centralizes the ownership and membership rules that gate
// access to projects and expenses. Handlers and services call these
// predicates instead of re-deriving the rules inline.
package authz

import "outlay/internal/core"

// CanRead reports whether the user may view the project, its expenses,
// and its budget status. Owners and members qualify.
func CanRead(userID int64, p core.Project) bool {
	return p.HasMember(userID)
}

// CanManage reports whether the user may update or delete the project and
// manage its member list. Only the owner qualifies.
func CanManage(userID int64, p core.Project) bool {
	return p.IsOwner(userID)
}

// CanModifyExpense reports whether the user may update or delete the
// expense: either they created it, or they own the project it belongs to.
func CanModifyExpense(userID int64, e core.Expense, p core.Project) bool {
	return e.CreatedBy == userID || CanManage(userID, p)
}

// ReadErr converts a failed CanRead check into the merged "not found"
// outcome so that inaccessible projects are indistinguishable from
// nonexistent ones.
func ReadErr(userID int64, p core.Project) error {
	if !CanRead(userID, p) {
		return core.ErrNotFound
	}
	return nil
}

// ManageErr converts a failed CanManage check into the merged "not found"
// outcome. Members who can read but not manage also get not-found on
// project mutations.
func ManageErr(userID int64, p core.Project) error {
	if !CanManage(userID, p) {
		return core.ErrNotFound
	}
	return nil
}
