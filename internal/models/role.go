package models

import "time"

type Role struct {
	ID          string    `json:"uid" dynamodbav:"uid"`
	Name        string    `json:"role" dynamodbav:"role"`
	Permissions []string  `json:"permissions" dynamodbav:"permissions,omitempty"`
	Description string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (r *Role) GetPK() string {
	return "ROLE#" + r.ID
}

func (r *Role) GetSK() string {
	return "METADATA"
}

func (r *Role) NamePK() string {
	return "ROLE_NAME#" + r.Name
}
