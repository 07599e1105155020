package ui

import (
	"sync"

	"authfort-cli/internal/domain"
)

// Screen renders one route
type Screen func()

// Router tracks the current route and renders its screen on navigation
type Router struct {
	mu      sync.Mutex
	current string
	screens map[string]Screen
}

// NewRouter creates a router positioned at initial
func NewRouter(initial string) *Router {
	return &Router{
		current: initial,
		screens: make(map[string]Screen),
	}
}

// Handle registers the screen shown for route
func (r *Router) Handle(route string, screen Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens[route] = screen
}

// Navigate switches to route and renders it. Navigating to the current
// route again is a no-op.
func (r *Router) Navigate(route string) {
	r.mu.Lock()
	if r.current == route {
		r.mu.Unlock()
		return
	}
	r.current = route
	screen := r.screens[route]
	r.mu.Unlock()

	if screen != nil {
		screen()
	}
}

// Current returns the active route
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// AtHome reports whether the home route is active
func (r *Router) AtHome() bool {
	return r.Current() == domain.RouteHome
}
