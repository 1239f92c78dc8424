// Package di provides a minimal typed service container used for module wiring.
package di

import "fmt"

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	Get(name string) (any, bool)
}

// Container is the write side of the container, handed to modules during registration.
type Container interface {
	ServiceRegistry
	Register(name string, svc any)
}

// container is a plain map. Registration happens single-threaded at startup,
// lookups only after all modules registered, so no locking is needed.
type container struct {
	services map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(name string, svc any) {
	c.services[name] = svc
}

func (c *container) Get(name string) (any, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Token is a typed service key. The type parameter carries the expected
// service type so lookups do not need casts at call sites.
type Token[T any] struct {
	name string
}

// NewToken creates a token with the given unique name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registration name.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a service under a typed token.
func RegisterToken[T any](c Container, tok Token[T], svc T) {
	c.Register(tok.name, svc)
}

// GetToken resolves a typed token. Panics on missing or mistyped service:
// a wiring error is a programming bug, not a runtime condition.
func GetToken[T any](r ServiceRegistry, tok Token[T]) T {
	svc, ok := r.Get(tok.name)
	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", tok.name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T, not the token type", tok.name, svc))
	}
	return typed
}
