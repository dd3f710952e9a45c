package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/credentials"
)

// checkAdmin authenticates adminID/adminSecret and requires the Admin
// role, the same two-step guard every user-management method in the
// original server_methods.py applies before touching the credential store
// or the RBAC policy.
func (s *Server) checkAdmin(ctx context.Context, adminID, adminSecret string) error {
	ok, err := s.credentials.Verify(ctx, adminID, adminSecret)
	if err != nil {
		return fmt.Errorf("authentication error for admin %s: %w", adminID, err)
	}
	if !ok {
		return fmt.Errorf("authentication failed for admin %s", adminID)
	}
	if !s.authz.IsAdmin(adminID) {
		return fmt.Errorf("admin role required for %s", adminID)
	}
	return nil
}

// AddUser provisions a new credential for userID, requiring userID to
// already hold a role assignment in the RBAC policy (the original's
// "user is not part of RBAC policy" precondition — policy assignment and
// credential creation are deliberately separate steps).
func (s *Server) AddUser(ctx context.Context, adminID, adminSecret, userID, secret string) (bool, string) {
	if err := s.checkAdmin(ctx, adminID, adminSecret); err != nil {
		return false, err.Error()
	}
	if !s.authz.UserExists(userID) {
		return false, fmt.Sprintf("user %s is not part of the RBAC policy", userID)
	}
	if _, err := s.credentials.Create(ctx, uuid.NewString(), userID, secret); err != nil {
		return false, fmt.Sprintf("failed to add user %s: %v", userID, err)
	}
	return true, fmt.Sprintf("user %s added successfully", userID)
}

// RemoveUser deletes userID's credential and RBAC role assignment. The
// last-admin protection lives in authz.Engine.DeleteUser, not duplicated
// here.
func (s *Server) RemoveUser(ctx context.Context, adminID, adminSecret, userID string) (bool, string) {
	if err := s.checkAdmin(ctx, adminID, adminSecret); err != nil {
		return false, err.Error()
	}

	rec, err := s.credentials.Get(ctx, userID)
	if errors.Is(err, credentials.ErrNotFound) {
		return false, fmt.Sprintf("user %s not found", userID)
	}
	if err != nil {
		return false, fmt.Sprintf("error retrieving user %s: %v", userID, err)
	}

	if err := s.authz.DeleteUser(userID); err != nil {
		if errors.Is(err, authz.ErrLastAdmin) {
			return false, "cannot delete last admin user"
		}
		return false, fmt.Sprintf("error removing %s from RBAC policy: %v", userID, err)
	}
	if err := s.credentials.Delete(ctx, rec.ID); err != nil {
		return false, fmt.Sprintf("user %s not found or could not be deleted", userID)
	}
	return true, fmt.Sprintf("user %s deleted successfully", userID)
}

// UpdateUserSecret rehashes userID's password, verifying the current one
// first.
func (s *Server) UpdateUserSecret(ctx context.Context, userID, secret, newSecret string) (bool, string) {
	if err := s.credentials.Update(ctx, userID, secret, newSecret); err != nil {
		switch {
		case errors.Is(err, credentials.ErrWeakPassword):
			return false, fmt.Sprintf("new secret for user %s does not meet policy", userID)
		case errors.Is(err, credentials.ErrNotFound):
			return false, fmt.Sprintf("user %s not found", userID)
		default:
			return false, fmt.Sprintf("authentication failed for user %s", userID)
		}
	}
	return true, fmt.Sprintf("user %s secret updated successfully", userID)
}

// CheckUserExists reports whether userID has a stored credential. It is
// the one method in this set with no admin guard, matching the original.
func (s *Server) CheckUserExists(ctx context.Context, userID string) (bool, string) {
	_, err := s.credentials.Get(ctx, userID)
	if errors.Is(err, credentials.ErrNotFound) {
		return false, fmt.Sprintf("user %s does not exist", userID)
	}
	if err != nil {
		return false, fmt.Sprintf("error checking user %s: %v", userID, err)
	}
	return true, fmt.Sprintf("user %s exists", userID)
}

// ListUsers returns every stored username.
func (s *Server) ListUsers(ctx context.Context, adminID, adminSecret string) ([]string, string, error) {
	if err := s.checkAdmin(ctx, adminID, adminSecret); err != nil {
		return nil, err.Error(), err
	}
	records, err := s.credentials.List(ctx)
	if err != nil {
		return nil, fmt.Sprintf("error listing users: %v", err), err
	}
	users := make([]string, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.Username)
	}
	return users, fmt.Sprintf("successfully retrieved %d users", len(users)), nil
}

// SetUserRole assigns role to userID in the RBAC policy. Unlike the
// original (an intentional no-op pending Casbin policy-file rewriting),
// this gateway's RBAC engine is mutable in-memory/DB state, so the
// assignment actually takes effect.
func (s *Server) SetUserRole(ctx context.Context, adminID, adminSecret, userID, role string) (bool, string) {
	if err := s.checkAdmin(ctx, adminID, adminSecret); err != nil {
		return false, err.Error()
	}
	s.authz.AddRole(userID, role)
	return true, fmt.Sprintf("role %s assigned to user %s", role, userID)
}

// GetUserDetails returns a "field:value" projection of userID's account,
// omitting the password hash and salt.
func (s *Server) GetUserDetails(ctx context.Context, adminID, adminSecret, userID string) ([]string, string, error) {
	if err := s.checkAdmin(ctx, adminID, adminSecret); err != nil {
		return nil, err.Error(), err
	}
	rec, err := s.credentials.Get(ctx, userID)
	if errors.Is(err, credentials.ErrNotFound) {
		return nil, fmt.Sprintf("user %s not found", userID), err
	}
	if err != nil {
		return nil, fmt.Sprintf("error retrieving user %s: %v", userID, err), err
	}
	details := []string{
		fmt.Sprintf("id:%s", rec.ID),
		fmt.Sprintf("username:%s", rec.Username),
		fmt.Sprintf("roles:%v", s.authz.RolesOf(rec.Username)),
	}
	return details, fmt.Sprintf("successfully retrieved details for user %s", userID), nil
}
