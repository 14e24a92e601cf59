package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Singh4599/techno-sapiens/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
	// ListPublished returns published events, optionally filtered by
	// category, ordered by date ascending.
	ListPublished(ctx context.Context, category string) ([]model.Event, error)
	ListAll(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}
