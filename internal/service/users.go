package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lottos-app/lottos/internal/model"
	"github.com/lottos-app/lottos/internal/store"
)

// Users handles entrant profile creation and reads for the UI layer.
type Users struct {
	store store.Store
	clock Clock
}

// NewUsers constructs a Users service.
func NewUsers(st store.Store) *Users {
	return &Users{store: st, clock: time.Now}
}

// Create persists a new entrant profile. Callers may supply a stable id
// (the UI uses a device identifier); missing ids are generated. Creating an
// id that already exists is idempotent: the stored profile comes back
// untouched, so a re-registering device can never wipe the membership lists
// events still point at.
func (s *Users) Create(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.User{}, fmt.Errorf("user name is required")
	}

	user := model.User{
		SchemaVersion: model.SchemaVersion,
		ID:            req.ID,
		Name:          req.Name,
		Email:         strings.TrimSpace(strings.ToLower(req.Email)),
		CreatedAt:     s.clock(),
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		existing, err := tx.User(ctx, user.ID)
		if err == nil {
			user = existing
			return nil
		}
		var notFound *store.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		return tx.PutUser(ctx, user)
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Get returns a single user document.
func (s *Users) Get(ctx context.Context, id string) (model.User, error) {
	if id == "" {
		return model.User{}, fmt.Errorf("user id is required")
	}
	return s.store.User(ctx, id)
}
