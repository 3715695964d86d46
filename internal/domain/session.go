package domain

import "time"

// Session is the signed-in user's state
type Session struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"displayName"`
	Authenticated bool      `json:"authenticated"`
	SignedInAt    time.Time `json:"signedInAt"`
}
