package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
)

// ActorContext identifies the caller of a core operation. It is built
// once at the HTTP boundary from the identity provider's token and
// passed explicitly into every operation; the core never reads session
// state from anywhere else.
type ActorContext struct {
	ID    primitive.ObjectID
	Roles []Role
}

func (a ActorContext) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a ActorContext) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

func (a ActorContext) IsDriver() bool {
	return a.HasRole(RoleDriver)
}
