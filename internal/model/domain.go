package model

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleOperator UserRole = "OPERATOR"
)

type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// IsOperator covers gate staff; admins hold every operator permission.
func (p Principal) IsOperator() bool {
	return p.Role == UserRoleOperator || p.Role == UserRoleAdmin
}
