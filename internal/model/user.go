package model

import "time"

// User roles. Superusers see the admin dashboard and manage accounts.
const (
	RoleUser      = "user"
	RoleSuperuser = "superuser"
)

// User is a portal account for field staff and administrators.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	LastLogin    time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
}
