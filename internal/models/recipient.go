package models

import "time"

type Recipient struct {
	ID          string    `json:"uid" dynamodbav:"uid"`
	FirstName   string    `json:"first_name" dynamodbav:"first_name"`
	LastName    string    `json:"last_name" dynamodbav:"last_name"`
	Email       string    `json:"email" dynamodbav:"email"`
	PhoneNumber string    `json:"phone_number" dynamodbav:"phone_number"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
}

func (r *Recipient) GetPK() string {
	return "RECIPIENT#" + r.ID
}

func (r *Recipient) GetSK() string {
	return "METADATA"
}
