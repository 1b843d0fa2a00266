package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no patient exists for the requested id.
var ErrNotFound = errors.New("patient not found")

// ProfileRepository reads a patient's clinical history snapshot.
type ProfileRepository interface {
	// GetProfile returns ErrNotFound when the patient does not exist.
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}
