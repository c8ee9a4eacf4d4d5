package models

import "time"

// User is a registered account. Users are immutable once created.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the identity of the user currently signed in to the board.
type Session struct {
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	LoggedInAt time.Time `json:"loggedInAt"`
}
