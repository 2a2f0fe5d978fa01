package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/logger"
)

var (
	// ErrUnknownProvider is returned for names missing from the catalog.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNotEnabled is returned when an operation needs an enabled provider.
	ErrNotEnabled = errors.New("provider is not enabled")

	// ErrCredentialsChanged is returned when credentials were replaced while a
	// validation round trip was in flight. The stale result is discarded.
	ErrCredentialsChanged = errors.New("credentials changed during validation")
)

// Provider is one entry of the catalog.
type Provider struct {
	Name        string      `json:"name"`
	Kind        llm.Kind    `json:"kind"`
	Credentials Credentials `json:"-"`
	Enabled     bool        `json:"enabled"`
	Models      []string    `json:"models"`
	LastError   string      `json:"last_error,omitempty"`
}

// Selection is the active (provider, model) pair.
type Selection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ModelLister performs model discovery for a provider.
type ModelLister interface {
	ListModels(ctx context.Context, p Provider) ([]string, error)
}

// Registry owns the provider catalog and the current selection. Enabled only
// becomes true through a successful ValidateAndEnable.
type Registry struct {
	mu        sync.RWMutex
	specs     map[string]Spec
	providers map[string]*Provider
	order     []string
	selection *Selection
	lister    ModelLister
	log       logger.Logger
}

// NewRegistry returns a registry holding the built-in providers, all disabled.
func NewRegistry(lister ModelLister, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard
	}

	r := &Registry{
		specs:     make(map[string]Spec),
		providers: make(map[string]*Provider),
		lister:    lister,
		log:       log,
	}
	for _, spec := range BuiltinSpecs() {
		r.add(string(spec.Kind()), spec)
	}
	return r
}

func (r *Registry) add(name string, spec Spec) {
	r.specs[name] = spec
	r.providers[name] = &Provider{Name: name, Kind: spec.Kind()}
	r.order = append(r.order, name)
}

// Spec returns the policy of the named provider.
func (r *Registry) Spec(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return spec, nil
}

// Configure stores credentials without checking reachability. A provider whose
// new credentials no longer satisfy its policy is disabled.
func (r *Registry) Configure(name string, creds Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, spec, err := r.lookup(name)
	if err != nil {
		return err
	}

	p.Credentials = creds
	if p.Enabled && !spec.IsConfigured(creds) {
		p.Enabled = false
		r.dropSelection(name)
	}

	r.log.Info("Provider credentials updated", map[string]interface{}{"provider": name})
	return nil
}

// IsConfigured reports whether the required credential fields are set.
func (r *Registry) IsConfigured(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, spec, err := r.lookup(name)
	if err != nil {
		return false
	}
	return spec.IsConfigured(p.Credentials)
}

// ValidateAndEnable runs one discovery round trip. On success the provider is
// enabled and its model cache replaced. On failure enabled is left unchanged
// and the error is recorded in LastError.
func (r *Registry) ValidateAndEnable(ctx context.Context, name string) ([]string, error) {
	snapshot, validated, err := r.prepareDiscovery(name)
	if err != nil {
		return nil, err
	}

	models, err := r.lister.ListModels(ctx, snapshot)

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.providers[name]
	if p.Credentials != validated {
		r.log.Warn("Provider credentials changed during validation", map[string]interface{}{"provider": name})
		return nil, fmt.Errorf("%w: %s", ErrCredentialsChanged, name)
	}
	if err != nil {
		p.LastError = err.Error()
		r.log.Warn("Provider validation failed", map[string]interface{}{
			"provider":      name,
			logger.ErrorKey: err.Error(),
		})
		return nil, err
	}

	p.Enabled = true
	p.Models = append([]string(nil), models...)
	p.LastError = ""

	r.log.Info("Provider enabled", map[string]interface{}{
		"provider": name,
		"models":   len(models),
	})
	return append([]string(nil), models...), nil
}

// prepareDiscovery checks the required fields and returns a copy of the
// provider with request credentials applied, plus the stored credentials the
// result will vouch for.
func (r *Registry) prepareDiscovery(name string) (Provider, Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, spec, err := r.lookup(name)
	if err != nil {
		return Provider{}, Credentials{}, err
	}

	if !spec.IsConfigured(p.Credentials) {
		cfgErr := &llm.ConfigurationError{Provider: name, Missing: Missing(spec, p.Credentials)}
		p.LastError = cfgErr.Error()
		return Provider{}, Credentials{}, cfgErr
	}

	snapshot := p.clone()
	snapshot.Credentials = spec.RequestCredentials(p.Credentials)
	return snapshot, p.Credentials, nil
}

// RefreshModels re-runs discovery for an enabled provider. The cache is
// replaced only when discovery succeeds.
func (r *Registry) RefreshModels(ctx context.Context, name string) ([]string, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	enabled := ok && p.Enabled
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if !enabled {
		return nil, fmt.Errorf("%w: %s", ErrNotEnabled, name)
	}

	return r.ValidateAndEnable(ctx, name)
}

// DiscoverMissing runs discovery for enabled providers that have no cached
// models. It returns how many providers were tried. Failures are recorded in
// LastError and returned joined.
func (r *Registry) DiscoverMissing(ctx context.Context) (int, error) {
	var pending []string
	r.mu.RLock()
	for _, name := range r.order {
		p := r.providers[name]
		if p.Enabled && len(p.Models) == 0 && r.specs[name].IsConfigured(p.Credentials) {
			pending = append(pending, name)
		}
	}
	r.mu.RUnlock()

	var errs []error
	for _, name := range pending {
		if _, err := r.ValidateAndEnable(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return len(pending), errors.Join(errs...)
}

// Disable turns a provider off. Credentials and cached models are kept.
func (r *Registry) Disable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, _, err := r.lookup(name)
	if err != nil {
		return err
	}

	p.Enabled = false
	r.dropSelection(name)
	return nil
}

// Select sets the current (provider, model) pair. The provider must be
// enabled; the model does not have to be in the cached list.
func (r *Registry) Select(name, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, _, err := r.lookup(name)
	if err != nil {
		return err
	}
	if !p.Enabled {
		return fmt.Errorf("%w: %s", ErrNotEnabled, name)
	}
	if model == "" {
		return fmt.Errorf("model is required")
	}

	r.selection = &Selection{Provider: name, Model: model}
	return nil
}

// ClearSelection unsets the current selection.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection = nil
}

// Selection returns the current selection, if any.
func (r *Registry) Selection() (Selection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.selection == nil {
		return Selection{}, false
	}
	return *r.selection, true
}

// Get returns a copy of the named provider.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, _, err := r.lookup(name)
	if err != nil {
		return Provider{}, err
	}
	return p.clone(), nil
}

// RequestProvider returns a copy of the named provider carrying the
// credentials to send, defaults applied.
func (r *Registry) RequestProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, spec, err := r.lookup(name)
	if err != nil {
		return Provider{}, err
	}
	out := p.clone()
	out.Credentials = spec.RequestCredentials(p.Credentials)
	return out, nil
}

// Providers returns copies of every provider in display order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name].clone())
	}
	return out
}

// Restore loads persisted state at start-up. Providers not in the catalog are
// ignored, and an enabled flag is only kept when the credentials still satisfy
// the provider's policy.
func (r *Registry) Restore(providers []Provider, selection *Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, in := range providers {
		p, spec, err := r.lookup(in.Name)
		if err != nil {
			r.log.Warn("Ignoring unknown persisted provider", map[string]interface{}{"provider": in.Name})
			continue
		}
		p.Credentials = in.Credentials
		p.Models = append([]string(nil), in.Models...)
		p.Enabled = in.Enabled && spec.IsConfigured(in.Credentials)
		p.LastError = in.LastError
	}

	r.selection = nil
	if selection != nil {
		if p, ok := r.providers[selection.Provider]; ok && p.Enabled && selection.Model != "" {
			sel := *selection
			r.selection = &sel
		}
	}
}

func (r *Registry) lookup(name string) (*Provider, Spec, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, r.specs[name], nil
}

func (r *Registry) dropSelection(name string) {
	if r.selection != nil && r.selection.Provider == name {
		r.selection = nil
	}
}

func (p *Provider) clone() Provider {
	out := *p
	out.Models = append([]string(nil), p.Models...)
	return out
}
