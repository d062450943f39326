package models

type Role string

const (
	RoleCreator Role = "creator"
	RoleGuest   Role = "guest"
)

func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleGuest
}

type User struct {
	Name         string `json:"name" yaml:"name"`
	Role         Role   `json:"role" yaml:"role"`
	Password     string `json:"-" yaml:"password"`
	PasswordHash string `json:"-" yaml:"password_hash"`
}

func (u User) IsCreator() bool {
	return u.Role == RoleCreator
}

type LoginRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}
