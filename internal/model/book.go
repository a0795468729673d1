package model

import "time"

// Genres lists the catalog genres a book may carry.
var Genres = []string{
	"adventure",
	"sci-fi",
	"romance",
	"comedy",
	"classical",
	"detective",
}

type Book struct {
	ID          string    `json:"_id"`
	BookID      string    `json:"bookID"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	Image       string    `json:"image"`
	Genre       string    `json:"genre"`
	IsAvailable bool      `json:"isAvailable"`
	DateCreated time.Time `json:"dateCreated"`
}
