package ports

import (
	"context"
	"encoding/json"

	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/domain/schema"
)

// ResourceStore defines the interface for resource file operations
type ResourceStore interface {
	EnsureDirectory() error
	Bootstrap(ctx context.Context, defaults map[entities.ResourceKey]string) error
	Read(ctx context.Context, key entities.ResourceKey) (json.RawMessage, error)
	WriteAtomic(ctx context.Context, key entities.ResourceKey, payload json.RawMessage, validate schema.Validator) error
	Path(key entities.ResourceKey) (string, error)
	HealthCheck() error
}
