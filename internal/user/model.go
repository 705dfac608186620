package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Password  string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// StaffInput is what an admin submits to add a team member.
type StaffInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"required,oneof=staff admin"`
}

type CreateParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
}
