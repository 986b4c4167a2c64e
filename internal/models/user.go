package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
)

// Valid reports whether the role is one of the supported roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	ClassID      *string    `db:"class_id" json:"class_id,omitempty"`
	RollNumber   *string    `db:"roll_number" json:"roll_number,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FacultyAssignments lists what a faculty member is responsible for.
type FacultyAssignments struct {
	InChargeClasses []Class   `json:"in_charge_classes"`
	Subjects        []Subject `json:"subjects"`
}

// UserDetail is the read model returned for a single user.
type UserDetail struct {
	User
	ClassName   *string             `db:"class_name" json:"class_name,omitempty"`
	Assignments *FacultyAssignments `db:"-" json:"assignments,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	ClassID   string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateUserRequest is the admin payload for adding a user.
type CreateUserRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	FullName   string   `json:"full_name" validate:"required,max=120"`
	Role       UserRole `json:"role" validate:"required,user_role"`
	ClassID    *string  `json:"class_id" validate:"omitempty,uuid"`
	RollNumber *string  `json:"roll_number" validate:"omitempty,max=32"`
}

// UpdateUserRequest changes mutable user attributes. Role is not accepted.
type UpdateUserRequest struct {
	FullName   *string `json:"full_name" validate:"omitnil,min=1,max=120"`
	Active     *bool   `json:"active"`
	ClassID    *string `json:"class_id" validate:"omitempty,uuid"`
	RollNumber *string `json:"roll_number" validate:"omitempty,max=32"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
