package ports

import (
	"context"
	"encoding/json"

	"github.com/mbj/siteapi/internal/domain/entities"
)

// Authenticator decides whether a credential may write
type Authenticator interface {
	Authenticate(cred entities.Credential) error
}

// ContentService interface for resource read/replace operations
type ContentService interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Replace(ctx context.Context, cred entities.Credential, key string, payload json.RawMessage) error
	Check(ctx context.Context) []ResourceReport
	Inspect(ctx context.Context, key entities.ResourceKey) ResourceReport
}

// ResourceReport is the outcome of validating one resource file on disk
type ResourceReport struct {
	Resource entities.ResourceKey `json:"resource"`
	Path     string               `json:"path"`
	Records  int                  `json:"records"`
	Bytes    int                  `json:"bytes"`
	OK       bool                 `json:"ok"`
	Error    string               `json:"error,omitempty"`
}
