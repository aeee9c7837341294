package users

import "time"

// Profile is the public view of a user returned by the API. It never carries the
// password hash.
type Profile struct {
	ID           int       `json:"id"`
	OpenID       *string   `json:"openId"`
	Username     *string   `json:"username"`
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	LoginMethod  *string   `json:"loginMethod"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// ToProfile strips private fields.
func (u User) ToProfile() Profile {
	return Profile{
		ID:           u.ID,
		OpenID:       u.OpenID,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		LoginMethod:  u.LoginMethod,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastSignedIn: u.LastSignedIn,
	}
}

// Summary is the short user object returned by a successful RPC login.
type Summary struct {
	ID       int     `json:"id"`
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     Role    `json:"role"`
}

// ToSummary returns the login summary of u.
func (u User) ToSummary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, Role: u.Role}
}
