// Package config resolves which Srclight instance the CLI talks to.
package config

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultURL is the public Srclight instance.
const DefaultURL = "https://srclight.dev"

// EnvURL overrides the instance URL when set.
const EnvURL = "SRCLIGHT_URL"

// Endpoints is an observable holder of the configured instance URL. Changing
// it invalidates every consumer that watches it, most importantly the cascade
// store.
type Endpoints struct {
	mu       sync.Mutex
	current  string
	watchers []chan string
}

// NewEndpoints returns an Endpoints fixed at url.
func NewEndpoints(url string) *Endpoints {
	return &Endpoints{current: Normalize(url)}
}

// FromEnvironment resolves the instance URL from a .env file (if present) and
// the process environment, falling back to DefaultURL.
func FromEnvironment() *Endpoints {
	_ = godotenv.Load()
	if u := os.Getenv(EnvURL); strings.TrimSpace(u) != "" {
		return NewEndpoints(u)
	}
	return NewEndpoints(DefaultURL)
}

// Normalize trims surrounding whitespace and any trailing slash so URLs can
// be compared and concatenated safely.
func Normalize(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// Current returns the configured instance URL.
func (e *Endpoints) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Set changes the instance URL and notifies watchers. Setting the same URL
// again is a no-op.
func (e *Endpoints) Set(url string) {
	url = Normalize(url)
	e.mu.Lock()
	defer e.mu.Unlock()
	if url == e.current {
		return
	}
	e.current = url
	for _, ch := range e.watchers {
		// Capacity-1 channels with displacement: watchers only need the
		// newest URL, not the full history.
		for {
			select {
			case ch <- url:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Watch returns a channel that receives the URL after each change. The
// channel is never closed; each call registers an independent watcher.
func (e *Endpoints) Watch() <-chan string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan string, 1)
	e.watchers = append(e.watchers, ch)
	return ch
}
