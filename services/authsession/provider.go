// Package authsession exposes the signed-in user of one client and lets
// other components observe changes to it.
package authsession

import (
	"context"
	"sync"

	"streamfront/models"
	"streamfront/services/identity"
)

// IdentityClient is the identity backend a Provider mirrors.
type IdentityClient interface {
	OnAuthStateChanged(fn identity.StateListener) func()
	SignIn(ctx context.Context, username, password string) (models.UserSession, error)
	SignUp(ctx context.Context, username, password string) (models.UserSession, error)
	Resume(ctx context.Context, token string) (models.UserSession, error)
	Refresh(ctx context.Context) (models.UserSession, error)
	SignOut(ctx context.Context) error
}

// Listener observes session changes. ok is false while signed out.
type Listener func(user models.UserSession, ok bool)

type subscriber struct {
	id int
	fn Listener
}

// Provider holds the current session for one client.
type Provider struct {
	client IdentityClient

	mu          sync.Mutex
	user        models.UserSession
	signedIn    bool
	subscribers []subscriber
	nextID      int

	emitMu   sync.Mutex
	detach   func()
	closeOne sync.Once
}

// NewProvider subscribes to client for the lifetime of the provider.
func NewProvider(client IdentityClient) *Provider {
	p := &Provider{client: client}
	p.detach = client.OnAuthStateChanged(p.handleChange)
	return p
}

// CurrentUser returns the signed-in user, if any.
func (p *Provider) CurrentUser() (models.UserSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, p.signedIn
}

// Subscribe registers fn and delivers the current value to it before returning.
// Subscribers are notified in the order they subscribed.
func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.emitMu.Lock()
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subscribers = append(p.subscribers, subscriber{id: id, fn: fn})
	user, ok := p.user, p.signedIn
	p.mu.Unlock()
	fn(user, ok)
	p.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.remove(id) })
	}
}

func (p *Provider) SignIn(ctx context.Context, username, password string) (models.UserSession, error) {
	return p.client.SignIn(ctx, username, password)
}

func (p *Provider) SignUp(ctx context.Context, username, password string) (models.UserSession, error) {
	return p.client.SignUp(ctx, username, password)
}

func (p *Provider) Resume(ctx context.Context, token string) (models.UserSession, error) {
	return p.client.Resume(ctx, token)
}

// Refresh slides the session expiry forward without notifying subscribers.
func (p *Provider) Refresh(ctx context.Context) (models.UserSession, error) {
	user, err := p.client.Refresh(ctx)
	if err != nil {
		return models.UserSession{}, err
	}
	p.mu.Lock()
	if p.signedIn && p.user.Token == user.Token {
		p.user.ExpiresAt = user.ExpiresAt
	}
	p.mu.Unlock()
	return user, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	return p.client.SignOut(ctx)
}

// Close detaches from the identity client. Subscribers receive no further updates.
func (p *Provider) Close() {
	p.closeOne.Do(func() {
		if p.detach != nil {
			p.detach()
		}
		p.mu.Lock()
		p.subscribers = nil
		p.mu.Unlock()
	})
}

func (p *Provider) handleChange(user models.UserSession, ok bool) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	p.user, p.signedIn = user, ok
	fns := make([]Listener, len(p.subscribers))
	for i, s := range p.subscribers {
		fns[i] = s.fn
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(user, ok)
	}
}

func (p *Provider) remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subscribers {
		if s.id == id {
			p.subscribers = append(p.subscribers[:i:i], p.subscribers[i+1:]...)
			return
		}
	}
}
