// Package external declares the out-of-process collaborators the core talks
// to: the user/role directory, the leave-type/holiday/closure config
// service, the notification dispatcher, and the audit sink. Spec §6 treats
// all four as external services reached over the network; this package only
// carries interfaces and the typed request/response shapes, never an
// implementation.
package external

import (
	"context"

	"github.com/google/uuid"
)

// User is the directory's view of a person (spec §6).
type User struct {
	ID                uuid.UUID
	Name              string
	Email             string
	ExecutiveLevelID  *string
	DepartmentID      *uuid.UUID
	ServiceID         *uuid.UUID
	Roles             []string
	IsApprover        bool
}

// UserFilter scopes a Directory.GetUsers call.
type UserFilter struct {
	Active           *bool
	Role             *string
	ExecutiveLevelID *string
}

// Department is the directory's view of an org department.
type Department struct {
	ID        uuid.UUID
	ManagerID *uuid.UUID
}

// Service is the directory's view of an org service/unit.
type Service struct {
	ID            uuid.UUID
	CoordinatorID *uuid.UUID
}

// Directory is the read-only synchronous user/role directory collaborator
// (spec §6).
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUsers(ctx context.Context, filter UserFilter) ([]User, error)
	GetSubordinates(ctx context.Context, managerID uuid.UUID) ([]User, error)
	GetApprovers(ctx context.Context) ([]User, error)
	GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error)
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
}
