// Package clients keeps one app instance per signed-in session token: an
// identity client, the auth provider observing it, and the favorites store
// observing the provider.
package clients

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"streamfront/internal/docstore"
	"streamfront/services/authsession"
	"streamfront/services/favorites"
	"streamfront/services/identity"
)

// ErrUnknownToken is returned by Release for tokens with no live instance.
var ErrUnknownToken = errors.New("no client for token")

// Instance is the state one browser session carries.
type Instance struct {
	Auth      *authsession.Provider
	Favorites *favorites.Store

	closeOnce sync.Once
}

// Close detaches the favorites store and the auth provider.
func (i *Instance) Close() {
	i.closeOnce.Do(func() {
		i.Favorites.Close()
		i.Auth.Close()
	})
}

// Registry maps session tokens to live instances.
type Registry struct {
	identity *identity.Service
	docs     docstore.Store

	mu      sync.Mutex
	byToken map[string]*Instance

	stop     chan struct{}
	stopOnce sync.Once
}

// sweepInterval is how often expired and signed-out instances are dropped.
const sweepInterval = 5 * time.Minute

// NewRegistry creates a registry and starts its background sweep. Close stops it.
func NewRegistry(identitySvc *identity.Service, docs docstore.Store) *Registry {
	r := &Registry{
		identity: identitySvc,
		docs:     docs,
		byToken:  make(map[string]*Instance),
		stop:     make(chan struct{}),
	}
	go r.sweepLoop(sweepInterval)
	return r
}

// New returns a signed-out instance that is not yet registered. Call Bind
// once it has signed in.
func (r *Registry) New(userAgent, ipAddress string) *Instance {
	provider := authsession.NewProvider(r.identity.NewClient(userAgent, ipAddress))
	return &Instance{
		Auth:      provider,
		Favorites: favorites.New(r.docs, provider),
	}
}

// Bind registers inst under its current session token.
func (r *Registry) Bind(inst *Instance) {
	user, ok := inst.Auth.CurrentUser()
	if !ok {
		return
	}
	r.mu.Lock()
	previous := r.byToken[user.Token]
	r.byToken[user.Token] = inst
	r.mu.Unlock()

	if previous != nil && previous != inst {
		previous.Close()
	}
}

// Resolve returns the instance for token, resuming the session into a fresh
// instance when none is live. A live instance whose favorites load failed is
// replaced, so the load runs again.
func (r *Registry) Resolve(ctx context.Context, token, userAgent, ipAddress string) (*Instance, error) {
	r.mu.Lock()
	inst, ok := r.byToken[token]
	r.mu.Unlock()

	if ok {
		if live(inst, token, time.Now()) {
			err := inst.Favorites.LoadErr()
			if err == nil {
				return inst, nil
			}
			log.Printf("[clients] reloading favorites for %s after failed load: %v", inst.username(), err)
		}
		r.evict(token, inst)
	}

	fresh := r.New(userAgent, ipAddress)
	if _, err := fresh.Auth.Resume(ctx, token); err != nil {
		fresh.Close()
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.byToken[token]; ok {
		r.mu.Unlock()
		fresh.Close()
		return existing, nil
	}
	r.byToken[token] = fresh
	r.mu.Unlock()

	log.Printf("[clients] resumed session for %s", fresh.username())
	return fresh, nil
}

// Release signs the instance for token out and forgets it.
func (r *Registry) Release(ctx context.Context, token string) error {
	r.mu.Lock()
	inst, ok := r.byToken[token]
	delete(r.byToken, token)
	r.mu.Unlock()

	if !ok {
		return ErrUnknownToken
	}
	defer inst.Close()
	return inst.Auth.SignOut(ctx)
}

// Len reports how many instances are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

// Sweep drops instances that are signed out or whose session expired before
// now, without revoking anything. It returns how many were dropped.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var stale []*Instance
	for token, inst := range r.byToken {
		if !live(inst, token, now) {
			delete(r.byToken, token)
			stale = append(stale, inst)
		}
	}
	r.mu.Unlock()

	for _, inst := range stale {
		inst.Close()
	}
	return len(stale)
}

// Close stops the sweep and tears down every live instance without revoking
// their sessions. The registry stays usable.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	instances := r.byToken
	r.byToken = make(map[string]*Instance)
	r.mu.Unlock()

	for _, inst := range instances {
		inst.Close()
	}
}

func (r *Registry) evict(token string, inst *Instance) {
	r.mu.Lock()
	if r.byToken[token] == inst {
		delete(r.byToken, token)
	}
	r.mu.Unlock()
	inst.Close()
}

func (r *Registry) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(time.Now()); n > 0 {
				log.Printf("[clients] swept %d stale instances", n)
			}
		case <-r.stop:
			return
		}
	}
}

func live(inst *Instance, token string, now time.Time) bool {
	user, signedIn := inst.Auth.CurrentUser()
	return signedIn && user.Token == token && now.Before(user.ExpiresAt)
}

func (i *Instance) username() string {
	user, _ := i.Auth.CurrentUser()
	return user.Username
}
