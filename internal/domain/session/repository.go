package session

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// Validate resolves a token hash to the owning user id; expired or
	// unknown tokens return an error.
	Validate(ctx context.Context, tokenHash string) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
