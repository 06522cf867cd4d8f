package models

import "time"

// User is a shopper account.
type User struct {
	ID        int64      `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Admin is a back-office account.
type Admin struct {
	ID        int64     `json:"admin_id"`
	Username  string    `json:"adminusername"`
	Email     string    `json:"adminemail"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"admincreated_at"`
}

// AccountPatch is a partial update shared by users and admins.
type AccountPatch struct {
	Username *string
	Email    *string
	Password *string
}

func (ap AccountPatch) ApplyUser(u User) User {
	if ap.Username != nil {
		u.Username = *ap.Username
	}
	if ap.Email != nil {
		u.Email = *ap.Email
	}
	if ap.Password != nil {
		u.Password = *ap.Password
	}
	return u
}

func (ap AccountPatch) ApplyAdmin(a Admin) Admin {
	if ap.Username != nil {
		a.Username = *ap.Username
	}
	if ap.Email != nil {
		a.Email = *ap.Email
	}
	if ap.Password != nil {
		a.Password = *ap.Password
	}
	return a
}
