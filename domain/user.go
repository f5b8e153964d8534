package domain

import "time"

// User is an account able to own and join boards.
type User struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Detail returns the public member view of u.
func (u User) Detail() MemberDetail {
	return MemberDetail{ID: u.ID, Name: u.Name, Email: u.Email}
}
