package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	registry   = make(map[Provider]Gateway)
	registryMu sync.RWMutex
)

// Register makes a gateway available for lookup by provider name.
func Register(g Gateway) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[g.Provider()] = g
}

// Get returns the registered gateway for the provider.
func Get(provider Provider) (Gateway, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	g, ok := registry[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported payment provider: %s", provider)
	}
	return g, nil
}

// WithTimeout bounds every Initiate call on the wrapped gateway. A deadline
// hit comes back as a failed Result rather than an error, so the workflow
// treats it like any other declined initiation.
func WithTimeout(g Gateway, d time.Duration) Gateway {
	return &timeoutGateway{next: g, timeout: d}
}

type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

func (g *timeoutGateway) Provider() Provider {
	return g.next.Provider()
}

func (g *timeoutGateway) Initiate(ctx context.Context, req *Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	res, err := g.next.Initiate(ctx, req)
	if errors.Is(err, context.DeadlineExceeded) {
		return &Result{Success: false, Err: "payment initiation timed out"}, nil
	}
	return res, err
}
