package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/credtrack/credtrack-api/internal/models"
	"github.com/credtrack/credtrack-api/internal/repository"
)

// Actor represents the authenticated user performing an operation, as
// extracted from the JWT by the auth middleware.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, models.RoleAdmin)
}

// IsTeacher reports whether the actor carries the teacher role.
func (a Actor) IsTeacher() bool {
	return strings.EqualFold(a.Role, models.RoleTeacher)
}

// IsStudent reports whether the actor carries the student role.
func (a Actor) IsStudent() bool {
	return strings.EqualFold(a.Role, models.RoleStudent)
}

// requireApprovedAccount loads the actor's account and verifies it passed
// the admin approval gate. Token role and stored role must agree.
func requireApprovedAccount(ctx context.Context, users repository.UserRepository, actor Actor) (models.User, error) {
	user, err := users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotAuthorized
		}
		return models.User{}, err
	}

	if !strings.EqualFold(user.Role, actor.Role) {
		return models.User{}, ErrNotAuthorized
	}

	if !user.IsApproved() {
		return models.User{}, ErrAccountNotApproved
	}

	return user, nil
}
