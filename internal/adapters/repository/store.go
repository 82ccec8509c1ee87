// Package repository keeps every user's latest risk profile ordered by
// combined score so the highest-risk users can be listed quickly.
package repository

import (
	"context"

	"github.com/okian/wellmed/internal/domain/types"
)

// Store provides read/write access to the risk board.
type Store interface {
	// Upsert replaces the user's profile and returns the one it replaced,
	// if any.
	Upsert(ctx context.Context, p types.Profile) (prev types.Profile, existed bool, err error)

	// Get returns the user's profile with Rank filled in.
	// Returns ErrNotFound if the user has no profile.
	Get(ctx context.Context, userID string) (types.Profile, error)

	// TopN returns the n highest-risk entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of users on the board.
	Count(ctx context.Context) int
}
