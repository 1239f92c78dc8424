package domain

import (
	"sync"
)

// Registry tracks which assets and venues the engine currently trades.
// It is a runtime subset of the closed Asset/Venue sets, safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	assets map[Asset]struct{}
	venues map[Venue]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		assets: make(map[Asset]struct{}),
		venues: make(map[Venue]struct{}),
	}
}

// AddAsset registers an asset. Invalid assets are ignored.
func (r *Registry) AddAsset(a Asset) {
	if !a.Valid() {
		return
	}
	r.mu.Lock()
	r.assets[a] = struct{}{}
	r.mu.Unlock()
}

// AddVenue registers a venue. Invalid venues are ignored.
func (r *Registry) AddVenue(v Venue) {
	if !v.Valid() {
		return
	}
	r.mu.Lock()
	r.venues[v] = struct{}{}
	r.mu.Unlock()
}

// SupportsAsset reports whether a is registered.
func (r *Registry) SupportsAsset(a Asset) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[a]
	return ok
}

// SupportsVenue reports whether v is registered.
func (r *Registry) SupportsVenue(v Venue) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.venues[v]
	return ok
}

// Assets returns the registered assets in declaration order.
func (r *Registry) Assets() []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Asset
	for _, a := range AllAssets() {
		if _, ok := r.assets[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Venues returns the registered venues in declaration order.
func (r *Registry) Venues() []Venue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Venue
	for _, v := range AllVenues() {
		if _, ok := r.venues[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
