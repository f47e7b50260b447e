package workflow

import (
	"fmt"
	"time"
)

// GuestUsername is the display name given to guest identities
const GuestUsername = "Guest User"

// Identity is who the workflow acts for. Token is an opaque bearer credential.
type Identity struct {
	UserID   string
	Username string
	Token    string
	Guest    bool
}

// NewGuest returns a guest identity keyed by the creation time
func NewGuest(now time.Time) Identity {
	return Identity{
		UserID:   fmt.Sprintf("GUEST_%d", now.UnixMilli()),
		Username: GuestUsername,
		Guest:    true,
	}
}

// CanPersist reports whether the identity may call persistence
func (i Identity) CanPersist() bool {
	return !i.Guest && i.Token != ""
}

// BearerToken returns the token used for persistence, empty for guests
func (i Identity) BearerToken() string {
	if !i.CanPersist() {
		return ""
	}
	return i.Token
}
