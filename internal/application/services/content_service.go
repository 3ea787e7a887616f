package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/domain/schema"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/infrastructure/metrics"
	"github.com/mbj/siteapi/internal/ports"
)

var _ ports.ContentService = (*ContentService)(nil)

// ContentService handles resource reads and authenticated replacements
type ContentService struct {
	store   ports.ResourceStore
	auth    ports.Authenticator
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewContentService creates a new content service. m may be nil.
func NewContentService(store ports.ResourceStore, auth ports.Authenticator, m *metrics.Metrics, appLogger *logger.Logger) *ContentService {
	return &ContentService{
		store:   store,
		auth:    auth,
		metrics: m,
		logger:  appLogger.WithComponent("content"),
	}
}

// Get returns the current array stored under key
func (s *ContentService) Get(ctx context.Context, key string) (json.RawMessage, error) {
	resource, err := entities.ParseResourceKey(key)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Read(ctx, resource)
	s.metrics.ObserveStore(resource.String(), "read", err)
	s.logger.LogStoreOperation("read", resource.String(), len(data), err)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resource, err)
	}

	return data, nil
}

// Replace authenticates cred and replaces the whole array under key with
// payload. Nothing is written unless both the credential and the payload pass.
func (s *ContentService) Replace(ctx context.Context, cred entities.Credential, key string, payload json.RawMessage) error {
	resource, err := entities.ParseResourceKey(key)
	if err != nil {
		return err
	}

	if err := s.auth.Authenticate(cred); err != nil {
		return err
	}

	validate, err := schema.ValidatorFor(resource)
	if err != nil {
		return err
	}

	err = s.store.WriteAtomic(ctx, resource, payload, validate)
	s.metrics.ObserveStore(resource.String(), "write", err)
	if err != nil {
		s.logger.Warnw("Resource replace rejected",
			"resource", resource,
			"ip", cred.RemoteIP,
			"error", err,
		)
		return fmt.Errorf("write %s: %w", resource, err)
	}

	s.logger.Infow("Resource replaced",
		"resource", resource,
		"bytes", len(payload),
		"ip", cred.RemoteIP,
	)
	return nil
}

// Check inspects every resource.
func (s *ContentService) Check(ctx context.Context) []ports.ResourceReport {
	keys := entities.AllResourceKeys()
	reports := make([]ports.ResourceReport, 0, len(keys))
	for _, key := range keys {
		reports = append(reports, s.Inspect(ctx, key))
	}
	return reports
}

// Inspect reads one resource from disk and runs its validator over it.
func (s *ContentService) Inspect(ctx context.Context, key entities.ResourceKey) ports.ResourceReport {
	report := ports.ResourceReport{Resource: key}
	report.Path, _ = s.store.Path(key)

	validate, err := schema.ValidatorFor(key)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	data, err := s.store.Read(ctx, key)
	s.metrics.ObserveStore(key.String(), "check", err)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Bytes = len(data)

	if err := validate(data); err != nil {
		report.Error = err.Error()
		return report
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		report.Records = len(records)
	}
	report.OK = true
	return report
}
