// Package users encapsulates the user records behind login: the model, its
// repositories (JSON table or PostgreSQL) and the service that verifies passwords.
package users

import "time"

// Role is the authorization role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// LoginMethodPassword marks users that sign in with username and password.
const LoginMethodPassword = "password"

// User represents a user in the system. Optional columns are pointers so that
// they round-trip as JSON null.
type User struct {
	ID           int       `json:"id"`
	OpenID       *string   `json:"openId"`
	Username     *string   `json:"username"`
	PasswordHash *string   `json:"passwordHash"`
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	LoginMethod  *string   `json:"loginMethod"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// UpsertParams carries the writable fields of a user. Either OpenID or Username
// identifies the row to update; when no row matches a new one is inserted.
type UpsertParams struct {
	OpenID       *string
	Username     *string
	PasswordHash *string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         Role
	LastSignedIn time.Time
}

func strPtr(s string) *string { return &s }
