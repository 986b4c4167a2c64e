package service

import (
	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID        string
	Role      models.UserRole
	ClassID   string
	IP        string
	UserAgent string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// ActorFromClaims builds an Actor from validated token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{ID: claims.UserID, Role: claims.Role, ClassID: claims.ClassID}
}

// requireSelfOrAdmin allows admins everywhere and other roles only on their own records.
func requireSelfOrAdmin(actor Actor, ownerID string) error {
	if actor.IsAdmin() || (actor.ID != "" && actor.ID == ownerID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not allowed to access another user's records")
}

// requireStudentAccess lets staff read any student and students only themselves.
func requireStudentAccess(actor Actor, studentID string) error {
	if actor.Role == models.RoleFaculty {
		return nil
	}
	return requireSelfOrAdmin(actor, studentID)
}
