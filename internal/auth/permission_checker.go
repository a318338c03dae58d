package auth

import "context"

// Permission names as stored in the permissions table.
const (
	PermViewAdvances    = "advances.view"
	PermApproveAdvance  = "advances.approve"
	PermRejectAdvance   = "advances.reject"
	PermRecordRepayment = "advances.record_repayment"
	PermDeleteHistory   = "advances.delete_history"
	PermViewEmployees   = "employees.view"
	PermAdmin           = "admin"
)

type PermissionChecker interface {
	CanApproveAdvances(userPermissions []string) bool
	CanRejectAdvances(userPermissions []string) bool
	CanRecordRepayments(userPermissions []string) bool
	CanDeleteHistory(userPermissions []string) bool
	CanViewAllAdvances(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission, PermAdmin}), nil
}

func (c *DefaultPermissionChecker) CanApproveAdvances(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermApproveAdvance, PermAdmin})
}

func (c *DefaultPermissionChecker) CanRejectAdvances(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermRejectAdvance, PermAdmin})
}

func (c *DefaultPermissionChecker) CanRecordRepayments(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermRecordRepayment, PermAdmin})
}

func (c *DefaultPermissionChecker) CanDeleteHistory(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermDeleteHistory, PermAdmin})
}

func (c *DefaultPermissionChecker) CanViewAllAdvances(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermViewAdvances, PermApproveAdvance, PermRejectAdvance, PermAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}
