package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh4599/techno-sapiens/internal/model"
)

func TestProfileCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPGProfileRepository(db)
	ctx := context.Background()

	profile := &model.Profile{
		Email:        "rey@example.com",
		FullName:     "Rey M",
		Role:         model.RoleUser,
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(ctx, profile))

	byID, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "rey@example.com", byID.Email)

	// Email lookup is case-insensitive.
	byEmail, err := repo.GetByEmail(ctx, "REY@Example.com")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestProfileCreateDuplicateEmail pins the unique-index translation: a
// second insert for the same address, whatever its casing, surfaces as
// ErrEmailExists rather than a raw driver error.
func TestProfileCreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPGProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Profile{
		Email:        "rey@example.com",
		Role:         model.RoleUser,
		PasswordHash: "hash",
	}))

	err := repo.Create(ctx, &model.Profile{
		Email:        "REY@EXAMPLE.COM",
		Role:         model.RoleUser,
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}
