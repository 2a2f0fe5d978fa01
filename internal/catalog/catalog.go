// Package catalog queries providers for the models they offer.
//
// The service is stateless: every call is one round trip and caching is left
// to the provider registry.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/provider"
	"golang.org/x/sync/errgroup"
)

// Service lists models through the provider's chat client.
type Service struct {
	factory llm.Factory
	log     logger.Logger
}

var _ provider.ModelLister = (*Service)(nil)

// NewService returns a Service building clients with factory. A nil factory
// uses llm.NewClient.
func NewService(factory llm.Factory, log logger.Logger) *Service {
	if factory == nil {
		factory = llm.NewClient
	}
	if log == nil {
		log = logger.Discard
	}
	return &Service{factory: factory, log: log}
}

// ListModels performs exactly one model-listing call for p.
func (s *Service) ListModels(ctx context.Context, p provider.Provider) ([]string, error) {
	client, err := s.factory(llm.Config{
		Name:    p.Name,
		Kind:    p.Kind,
		APIKey:  p.Credentials.APIKey,
		BaseURL: p.Credentials.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", p.Name, err)
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Listed models", map[string]interface{}{
		"provider": p.Name,
		"count":    len(models),
	})
	return models, nil
}

// Result is the outcome of listing one provider.
type Result struct {
	Models []string
	Err    error
}

// ListAll lists every given provider concurrently. A failing provider does
// not cancel the others; its error is reported in its Result.
func (s *Service) ListAll(ctx context.Context, providers []provider.Provider) map[string]Result {
	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(providers))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range providers {
		g.Go(func() error {
			models, err := s.ListModels(gctx, p)
			mu.Lock()
			results[p.Name] = Result{Models: models, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
