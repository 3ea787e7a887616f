package entities

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoTokenConfig = errors.New("no api token configured")
	ErrNilValidator  = errors.New("validator is required")
	ErrEmptyDataDir  = errors.New("data directory is required")
)

// ResourceKey identifies one of the JSON-array resources kept on disk.
type ResourceKey string

const (
	ResourcePosts    ResourceKey = "posts"
	ResourceProjects ResourceKey = "projects"
	ResourceTech     ResourceKey = "tech"
)

// AllResourceKeys returns the known resources in a stable order.
func AllResourceKeys() []ResourceKey {
	return []ResourceKey{ResourcePosts, ResourceProjects, ResourceTech}
}

// ParseResourceKey maps a raw key to a ResourceKey, failing with
// *UnknownResourceError for anything outside the configured set.
func ParseResourceKey(raw string) (ResourceKey, error) {
	key := ResourceKey(strings.TrimSpace(raw))
	if !key.IsValid() {
		return "", &UnknownResourceError{Key: raw}
	}
	return key, nil
}

// IsValid reports whether k is one of the known resources.
func (k ResourceKey) IsValid() bool {
	switch k {
	case ResourcePosts, ResourceProjects, ResourceTech:
		return true
	}
	return false
}

// FileName is the resource's file name inside the data directory.
func (k ResourceKey) FileName() string {
	return string(k) + ".json"
}

func (k ResourceKey) String() string {
	return string(k)
}

// Credential is the caller identity handed to every write. It is built per
// request from the Authorization header; nothing about it is kept between calls.
type Credential struct {
	BearerToken string
	RemoteIP    string
}

// HasToken reports whether the caller presented a non-empty bearer token.
func (c Credential) HasToken() bool {
	return strings.TrimSpace(c.BearerToken) != ""
}
