package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/claim-bench/internal/platform/observability"
)

// ErrNoProvider indicates no registered provider serves the requested model.
var ErrNoProvider = errors.New("no LLM provider for model")

// RegistryConfig configures per-call limits shared by all providers.
type RegistryConfig struct {
	RequestTimeout time.Duration
	Circuit        CircuitBreakerConfig
}

// Registry routes requests to the provider serving the requested model and
// guards each provider with a circuit breaker.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	circuitBreakers map[ProviderName]*CircuitBreaker
	cfg             RegistryConfig
	logger          *zerolog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(cfg RegistryConfig, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		cfg:             cfg,
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p
	r.circuitBreakers[name] = NewCircuitBreaker(r.cfg.Circuit, r.logger)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Bool("available", p.IsAvailable()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Complete sends req to the provider serving req.Model.
func (r *Registry) Complete(ctx context.Context, req Request) (string, error) {
	name := ProviderForModel(req.Model)

	r.mu.RLock()
	p, ok := r.providers[name]
	cb := r.circuitBreakers[name]
	r.mu.RUnlock()

	if !ok || !p.IsAvailable() {
		return "", fmt.Errorf(errProviderUnavailable, ErrNoProvider, name)
	}

	if err := cb.CheckCircuit(); err != nil {
		observability.LLMRequests.WithLabelValues(string(name), observability.StatusDropped).Inc()

		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	text, err := p.Complete(callCtx, req)
	elapsed := time.Since(start)

	observability.LLMRequestDuration.WithLabelValues(req.Model).Observe(elapsed.Seconds())

	if err != nil {
		// A caller that gave up is not the provider's fault.
		if ctx.Err() == nil {
			cb.RecordFailure(name)
		}

		observability.LLMRequests.WithLabelValues(string(name), observability.StatusError).Inc()

		r.logger.Debug().
			Err(err).
			Str(logKeyProvider, string(name)).
			Str(logKeyModel, req.Model).
			Dur(logKeyDuration, elapsed).
			Msg("LLM request failed")

		return "", err
	}

	cb.RecordSuccess()
	observability.LLMRequests.WithLabelValues(string(name), observability.StatusSuccess).Inc()

	return text, nil
}
