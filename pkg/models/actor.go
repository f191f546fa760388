package models

import "github.com/aleciaid/crm-bj/pkg/roles"

// GuestUsername is the user name written on log entries made from the
// unauthenticated guest pages.
const GuestUsername = "Guest"

// Actor is whoever triggers an operation: a logged-in account or a guest.
type Actor struct {
	UserID   string
	Username string
	Role     roles.Role
	Guest    bool
}

func GuestActor() Actor {
	return Actor{Username: GuestUsername, Guest: true}
}

// SystemActor is used by CLI commands and background jobs.
func SystemActor() Actor {
	return Actor{Username: "system", Role: roles.Admin}
}
