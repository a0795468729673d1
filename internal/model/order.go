package model

import (
	"time"
)

// DefaultLoanPeriod is how long a book may be kept when the caller
// does not supply a deadline.
const DefaultLoanPeriod = 7 * 24 * time.Hour

// Order joins a user and a book by their public identifiers.
// IsCancelled and IsAccepted are never both true.
type Order struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	BookID      string    `json:"bookId"`
	IsCancelled bool      `json:"isCancelled"`
	IsAccepted  bool      `json:"isAccepted"`
	Until       time.Time `json:"until"`
	DateCreated time.Time `json:"dateCreated"`
}

// Pending reports whether the order is neither cancelled nor accepted.
func (o Order) Pending() bool {
	return !o.IsCancelled && !o.IsAccepted
}

// Page is a skip/limit window over a listing.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize applies the listing defaults and bounds.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
