package model

import "time"

type User struct {
	ID           string    `json:"_id"`
	UserID       string    `json:"userID"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	DateCreated  time.Time `json:"dateCreated"`
}
