package cascade

import (
	"context"
	"sync"
)

// Update is one delivery from the Store: a cascade snapshot or the error that
// replaced it. Consumers that only care about the latest state can treat an
// Err update as "the cascade is currently unavailable".
type Update struct {
	Cascade *Cascade
	Err     error
}

// EndpointSource provides the configured instance URL and notifies the Store
// when it changes.
type EndpointSource interface {
	Current() string
	Watch() <-chan string
}

// CascadeFetcher fetches one cascade snapshot. The Store cancels ctx when a
// newer trigger supersedes the fetch; superseded fetches deliver nothing.
type CascadeFetcher interface {
	FetchCascade(ctx context.Context, endpoint string) (*Cascade, error)
}

// Store is the shared, process-wide cascade cache. It fetches lazily on the
// first subscription and refetches whenever the endpoint changes or Refresh
// fires. All subscribers observe the same sequence of updates from a single
// underlying fetch, and a late subscriber immediately receives the most
// recent update.
type Store struct {
	fetcher   CascadeFetcher
	endpoints EndpointSource

	mu      sync.Mutex
	started bool
	gen     int
	cancel  context.CancelFunc
	last    *Update
	subs    map[int]chan Update
	nextSub int
	done    chan struct{}
}

// NewStore builds a Store. It does not fetch until the first subscription.
func NewStore(fetcher CascadeFetcher, endpoints EndpointSource) *Store {
	return &Store{
		fetcher:   fetcher,
		endpoints: endpoints,
		subs:      map[int]chan Update{},
		done:      make(chan struct{}),
	}
}

// Subscribe registers a consumer. The returned channel first replays the most
// recent update if one exists, then carries each subsequent update; a slow
// consumer only ever loses intermediate values, never the latest. The cancel
// function unregisters the consumer.
func (s *Store) Subscribe() (<-chan Update, func()) {
	s.ensureStarted()

	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 1)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	if s.last != nil {
		ch <- *s.last
	}
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Value takes exactly one update from the store then unsubscribes. It is the
// suspension point used by one-shot consumers such as the edit protocol.
func (s *Store) Value(ctx context.Context) (*Cascade, error) {
	ch, cancel := s.Subscribe()
	defer cancel()
	select {
	case u := <-ch:
		return u.Cascade, u.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Refresh discards the in-flight fetch (if any) and refetches. Before the
// first subscription it is a no-op since nothing has been cached yet.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.refetchLocked()
}

// Close stops the endpoint watcher and cancels any in-flight fetch.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Store) ensureStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	changes := s.endpoints.Watch()
	go func() {
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				s.mu.Lock()
				s.refetchLocked()
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()

	s.refetchLocked()
}

// refetchLocked starts a new fetch generation. The previous in-flight fetch
// is canceled and its eventual result discarded without error (switch-latest).
func (s *Store) refetchLocked() {
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	endpoint := s.endpoints.Current()

	go func() {
		c, err := s.fetcher.FetchCascade(ctx, endpoint)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			// Superseded by a newer trigger; this result is never delivered.
			return
		}
		s.cancel = nil
		u := Update{Cascade: c, Err: err}
		s.last = &u
		for _, ch := range s.subs {
			sendLatest(ch, u)
		}
	}()
}

// sendLatest pushes u onto a capacity-1 channel, displacing an unconsumed
// older update so the receiver always sees the newest value.
func sendLatest(ch chan Update, u Update) {
	for {
		select {
		case ch <- u:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
