package cache

import (
	"context"

	"orusledger/internal/models"
)

// NoopCache is used when no Redis server is configured.
type NoopCache struct{}

func (NoopCache) GetBalance(context.Context, string) (*models.Account, error) { return nil, ErrCacheMiss }
func (NoopCache) SetBalance(context.Context, *models.Account) error           { return nil }
func (NoopCache) InvalidateBalance(context.Context, ...string) error          { return nil }
