package models

import (
	"time"
)

type User struct {
	ID        string    `json:"uid" dynamodbav:"uid"`
	Email     string    `json:"email" dynamodbav:"email"`
	Password  string    `json:"-" dynamodbav:"password"`
	FirstName string    `json:"first_name" dynamodbav:"first_name"`
	LastName  string    `json:"last_name" dynamodbav:"last_name"`
	IsActive  bool      `json:"is_active" dynamodbav:"is_active"`
	RoleID    string    `json:"role_uid,omitempty" dynamodbav:"role_uid,omitempty"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (u *User) GetPK() string {
	return "USER#" + u.ID
}

func (u *User) GetSK() string {
	return "METADATA"
}

// EmailPK is the key of the marker item that keeps emails unique.
func (u *User) EmailPK() string {
	return "USER_EMAIL#" + u.Email
}

// Identity returns the projection of the user the auth gate hands to handlers.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:       u.ID,
		IsActive: u.IsActive,
		RoleID:   u.RoleID,
	}
}

// Identity is the resolved principal behind a bearer token.
type Identity struct {
	ID       string
	IsActive bool
	RoleID   string
}
