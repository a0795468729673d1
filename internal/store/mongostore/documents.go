package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bookshelf/internal/model"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"userID"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password"`
	IsAdmin      bool               `bson:"isAdmin"`
	DateCreated  time.Time          `bson:"dateCreated"`
}

func (d userDoc) model() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsAdmin:      d.IsAdmin,
		DateCreated:  d.DateCreated,
	}
}

type bookDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	BookID      string             `bson:"bookID"`
	Name        string             `bson:"name"`
	Author      string             `bson:"author"`
	Image       string             `bson:"image"`
	Genre       string             `bson:"genre"`
	IsAvailable bool               `bson:"isAvailable"`
	DateCreated time.Time          `bson:"dateCreated"`
}

func (d bookDoc) model() model.Book {
	return model.Book{
		ID:          d.ID.Hex(),
		BookID:      d.BookID,
		Name:        d.Name,
		Author:      d.Author,
		Image:       d.Image,
		Genre:       d.Genre,
		IsAvailable: d.IsAvailable,
		DateCreated: d.DateCreated,
	}
}

type orderDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"userId"`
	BookID      string             `bson:"bookId"`
	IsCancelled bool               `bson:"isCancelled"`
	IsAccepted  bool               `bson:"isAccepted"`
	Until       time.Time          `bson:"until"`
	DateCreated time.Time          `bson:"dateCreated"`
}

func (d orderDoc) model() model.Order {
	return model.Order{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		BookID:      d.BookID,
		IsCancelled: d.IsCancelled,
		IsAccepted:  d.IsAccepted,
		Until:       d.Until,
		DateCreated: d.DateCreated,
	}
}
