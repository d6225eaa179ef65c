// Package devices keeps the named Doorbird endpoints from the config file
// and reloads them when the file changes.
package devices

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bft-labs/birdcall/internal/domain"
)

// Registry is a concurrency-safe name -> Endpoint map.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]domain.Endpoint
}

// NewRegistry creates a registry holding a copy of devices.
func NewRegistry(devices map[string]domain.Endpoint) *Registry {
	r := &Registry{}
	r.Replace(devices)
	return r
}

// Lookup returns the endpoint registered under name.
func (r *Registry) Lookup(name string) (domain.Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.devices[name]
	return ep, ok
}

// Replace swaps the whole set of devices.
func (r *Registry) Replace(devices map[string]domain.Endpoint) {
	m := make(map[string]domain.Endpoint, len(devices))
	for k, v := range devices {
		m[k] = v
	}
	r.mu.Lock()
	r.devices = m
	r.mu.Unlock()
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.devices))
	for k := range r.devices {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve turns an event into the endpoint to upload to. A named device
// fills whatever the event leaves empty.
func (r *Registry) Resolve(ev domain.AudioEvent) (domain.Endpoint, error) {
	if ev.Device != "" {
		base, ok := r.Lookup(ev.Device)
		if !ok {
			return domain.Endpoint{}, &domain.Error{
				Kind: domain.KindInvalid,
				Err:  fmt.Errorf("unknown device %q", ev.Device),
			}
		}
		ev = ev.Merge(base)
	}
	ep := ev.Endpoint()
	if err := ep.Validate(); err != nil {
		return domain.Endpoint{}, err
	}
	return ep, nil
}
