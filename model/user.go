package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Role is the user type.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleCustomer      Role = "customer"
)

// User is an administrator or a customer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) EntityID() string { return u.ID }

func (u User) Parents() []ParentRef { return nil }

// NewUser is the creation payload for User.
type NewUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (in NewUser) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Role, validation.Required, validation.In(RoleAdministrator, RoleCustomer)),
	)
}

func (in NewUser) Build(time.Time) User {
	return User{Name: in.Name, Email: in.Email, Role: in.Role}
}

// UserPatch updates a subset of User fields.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *Role   `json:"role,omitempty"`
}

func (p UserPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty),
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&p.Role, validation.NilOrNotEmpty, validation.In(RoleAdministrator, RoleCustomer)),
	)
}

func (p UserPatch) Fields() map[string]any {
	f := fields{}
	f.setString("name", p.Name)
	f.setString("email", p.Email)
	if p.Role != nil {
		f["role"] = string(*p.Role)
	}
	return f
}
