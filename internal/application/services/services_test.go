package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbj/siteapi/internal/adapters/repository"
	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/infrastructure/config"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/infrastructure/metrics"
)

const testToken = "letmein"

func TestTokenAuthenticator(t *testing.T) {
	hash, err := HashToken("hashed-secret")
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  config.AuthConfig
		cred entities.Credential
		want error
	}{
		{"plain token accepted", config.AuthConfig{APIToken: testToken}, entities.Credential{BearerToken: testToken}, nil},
		{"surrounding spaces ignored", config.AuthConfig{APIToken: testToken}, entities.Credential{BearerToken: " " + testToken + " "}, nil},
		{"hashed token accepted", config.AuthConfig{APITokenHash: hash}, entities.Credential{BearerToken: "hashed-secret"}, nil},
		{"either form accepted", config.AuthConfig{APIToken: testToken, APITokenHash: hash}, entities.Credential{BearerToken: "hashed-secret"}, nil},
		{"wrong token", config.AuthConfig{APIToken: testToken}, entities.Credential{BearerToken: "nope"}, entities.ErrInvalidToken},
		{"wrong token against hash", config.AuthConfig{APITokenHash: hash}, entities.Credential{BearerToken: "nope"}, entities.ErrInvalidToken},
		{"missing token", config.AuthConfig{APIToken: testToken}, entities.Credential{}, entities.ErrMissingToken},
		{"nothing configured", config.AuthConfig{}, entities.Credential{BearerToken: "anything"}, entities.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewTokenAuthenticator(tt.cfg, logger.NewNop())
			err := auth.Authenticate(tt.cred)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenAuthenticator_NotConfigured(t *testing.T) {
	err := NewTokenAuthenticator(config.AuthConfig{}, logger.NewNop()).Authenticate(entities.Credential{BearerToken: "x"})
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
	assert.ErrorIs(t, err, entities.ErrNoTokenConfig)
}

func TestTokenAuthenticator_Configured(t *testing.T) {
	assert.False(t, NewTokenAuthenticator(config.AuthConfig{APIToken: "  "}, logger.NewNop()).Configured())
	assert.True(t, NewTokenAuthenticator(config.AuthConfig{APIToken: "x"}, logger.NewNop()).Configured())
}

func newContentService(t *testing.T) (*ContentService, *repository.ResourceStore, *metrics.Metrics) {
	t.Helper()
	store, err := repository.NewResourceStore(filepath.Join(t.TempDir(), "data"), logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Bootstrap(context.Background(), nil))

	m := metrics.New()
	auth := NewTokenAuthenticator(config.AuthConfig{APIToken: testToken}, logger.NewNop())
	return NewContentService(store, auth, m, logger.NewNop()), store, m
}

func TestContentService_ReplaceAndGet(t *testing.T) {
	svc, _, m := newContentService(t)
	ctx := context.Background()
	cred := entities.Credential{BearerToken: testToken, RemoteIP: "10.0.0.1"}

	payload := json.RawMessage(`[{"title":"Site","description":"d","category":"web"}]`)
	require.NoError(t, svc.Replace(ctx, cred, "projects", payload))

	got, err := svc.Get(ctx, "projects")
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("projects", "write", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("projects", "read", "ok")))
}

func TestContentService_ReplaceRejections(t *testing.T) {
	svc, store, m := newContentService(t)
	ctx := context.Background()
	valid := json.RawMessage(`[{"id":1,"title":"t","excerpt":"e","content":"c","category":"x"}]`)

	t.Run("unauthenticated writes nothing", func(t *testing.T) {
		err := svc.Replace(ctx, entities.Credential{BearerToken: "wrong"}, "posts", valid)
		assert.ErrorIs(t, err, entities.ErrInvalidToken)

		got, err := store.Read(ctx, entities.ResourcePosts)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("unknown key", func(t *testing.T) {
		err := svc.Replace(ctx, entities.Credential{BearerToken: testToken}, "users", valid)
		var unknown *entities.UnknownResourceError
		assert.True(t, errors.As(err, &unknown))
	})

	t.Run("invalid payload", func(t *testing.T) {
		err := svc.Replace(ctx, entities.Credential{BearerToken: testToken}, "posts", json.RawMessage(`"not-an-array"`))
		var verr *entities.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "posts payload must be an array", verr.Message)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("posts", "write", "error")))
	})
}

func TestContentService_GetErrors(t *testing.T) {
	svc, store, _ := newContentService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "users")
	var unknown *entities.UnknownResourceError
	assert.True(t, errors.As(err, &unknown))

	path, err := store.Path(entities.ResourceTech)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

	_, err = svc.Get(ctx, "tech")
	var parseErr *entities.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestContentService_Check(t *testing.T) {
	svc, store, _ := newContentService(t)
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, entities.Credential{BearerToken: testToken}, "posts",
		json.RawMessage(`[{"id":1,"title":"a","excerpt":"e","content":"c","category":"x"},{"id":2,"title":"b","excerpt":"e","content":"c","category":"x"}]`)))

	// An operator edit that bypasses validation.
	path, err := store.Path(entities.ResourceTech)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"Langs"}]`), 0o644))

	reports := svc.Check(ctx)
	require.Len(t, reports, 3)

	byKey := map[entities.ResourceKey]bool{}
	for _, r := range reports {
		byKey[r.Resource] = r.OK
		switch r.Resource {
		case entities.ResourcePosts:
			assert.Equal(t, 2, r.Records)
		case entities.ResourceTech:
			assert.Equal(t, "category.items must be array", r.Error)
		}
	}
	assert.Equal(t, map[entities.ResourceKey]bool{
		entities.ResourcePosts:    true,
		entities.ResourceProjects: true,
		entities.ResourceTech:     false,
	}, byKey)
}
