// Package authz implements the RBAC engine (C5): classical
// role-based access control extended with resource roles — objects may be
// grouped into a resource-role so a single permission grants access to the
// whole group.
package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// AdminRole is the distinguished role that makes is_admin true.
const AdminRole = "Admin"

// ErrLastAdmin is returned by DeleteUser/RemoveRole when the operation
// would leave the Admin role with no members.
var ErrLastAdmin = errors.New("authz: cannot remove the last admin")

// ErrUnknownUser is returned when an operation addresses a subject with no
// role assignments on record.
var ErrUnknownUser = errors.New("authz: unknown user")

// Permission grants action on object (or a resource role covering object)
// to any subject holding role.
type Permission struct {
	Role   string
	Object string
	Action string
}

// Policy is the static configuration an Engine is constructed from: the
// model (resource-role groupings and the permissions granted per role) plus
// the policy (which subjects hold which roles).
type Policy struct {
	Permissions     []Permission
	ResourceRoles   map[string][]string // resource role name -> member objects
	RoleAssignments map[string][]string // subject -> roles
}

// Engine evaluates subject-object-action authorization decisions against a
// role-based model with resource roles.
type Engine struct {
	mu sync.RWMutex

	permissions   []Permission
	resourceRoles map[string]map[string]bool // resource role -> objects
	roles         map[string]map[string]bool // subject -> roles
}

// NewEngine builds an Engine from a model (permissions + resource-role
// groupings) and an initial policy (role assignments).
func NewEngine(policy Policy) *Engine {
	e := &Engine{
		permissions:   append([]Permission(nil), policy.Permissions...),
		resourceRoles: make(map[string]map[string]bool),
		roles:         make(map[string]map[string]bool),
	}
	for rr, objects := range policy.ResourceRoles {
		set := make(map[string]bool, len(objects))
		for _, obj := range objects {
			set[obj] = true
		}
		e.resourceRoles[rr] = set
	}
	for subject, roles := range policy.RoleAssignments {
		set := make(map[string]bool, len(roles))
		for _, r := range roles {
			set[r] = true
		}
		e.roles[subject] = set
	}
	return e
}

// objectMatches reports whether permObject covers object directly or via a
// resource-role grouping.
func (e *Engine) objectMatches(permObject, object string) bool {
	if permObject == object || permObject == "*" {
		return true
	}
	if members, ok := e.resourceRoles[permObject]; ok {
		return members[object]
	}
	return false
}

// Authorize reports whether subject may perform action on object.
func (e *Engine) Authorize(_ context.Context, subject, object, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	roles := e.roles[subject]
	if len(roles) == 0 {
		return false, nil
	}
	for _, perm := range e.permissions {
		if !roles[perm.Role] {
			continue
		}
		if perm.Action != action && perm.Action != "*" {
			continue
		}
		if e.objectMatches(perm.Object, object) {
			return true, nil
		}
	}
	return false, nil
}

// IsAdmin reports whether subject holds the Admin role.
func (e *Engine) IsAdmin(subject string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles[subject][AdminRole]
}

// RolesOf returns the roles held by subject.
func (e *Engine) RolesOf(subject string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	roles := make([]string, 0, len(e.roles[subject]))
	for r := range e.roles[subject] {
		roles = append(roles, r)
	}
	return roles
}

// UsersInRole returns every subject holding role.
func (e *Engine) UsersInRole(role string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var subjects []string
	for subject, roles := range e.roles {
		if roles[role] {
			subjects = append(subjects, subject)
		}
	}
	return subjects
}

// Assignments returns a snapshot of every subject's role set, for
// read-only inspection.
func (e *Engine) Assignments() map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string][]string, len(e.roles))
	for subject, roles := range e.roles {
		rs := make([]string, 0, len(roles))
		for r := range roles {
			rs = append(rs, r)
		}
		out[subject] = rs
	}
	return out
}

// UserExists reports whether subject has any role assignment on record.
func (e *Engine) UserExists(subject string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.roles[subject]
	return ok
}

// AddRole grants role to subject.
func (e *Engine) AddRole(subject, role string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.roles[subject] == nil {
		e.roles[subject] = make(map[string]bool)
	}
	e.roles[subject][role] = true
}

// countAdminsLocked returns the number of subjects holding AdminRole. Caller
// must hold e.mu (read or write).
func (e *Engine) countAdminsLocked() int {
	n := 0
	for _, roles := range e.roles {
		if roles[AdminRole] {
			n++
		}
	}
	return n
}

// RemoveRole revokes role from subject. Revoking the Admin role from the
// last remaining admin is rejected.
func (e *Engine) RemoveRole(subject, role string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	roles, ok := e.roles[subject]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUser, subject)
	}
	if role == AdminRole && roles[AdminRole] && e.countAdminsLocked() <= 1 {
		return ErrLastAdmin
	}
	delete(roles, role)
	return nil
}

// DeleteUser removes every role assignment for subject. It refuses to
// delete the last remaining admin.
func (e *Engine) DeleteUser(subject string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	roles, ok := e.roles[subject]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUser, subject)
	}
	if roles[AdminRole] && e.countAdminsLocked() <= 1 {
		return ErrLastAdmin
	}
	delete(e.roles, subject)
	return nil
}
