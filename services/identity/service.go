// Package identity signs users in and out against local accounts and session
// tokens, and tells each client when its signed-in user changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"streamfront/models"
	"streamfront/services/accounts"
	"streamfront/services/sessions"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionInvalid     = errors.New("session is no longer valid")
)

type accountsStore interface {
	Get(id string) (models.Account, bool)
	Exists(id string) bool
	Create(username, password string) (models.Account, error)
	Authenticate(username, password string) (models.Account, error)
	UpdatePassword(id, newPassword string) error
	Delete(id string) error
}

type sessionStore interface {
	Create(accountID, userAgent, ipAddress string) (models.Session, error)
	Validate(token string) (models.Session, error)
	Refresh(token string) (models.Session, error)
	Revoke(token string) error
	RevokeAllForAccount(accountID string) int
	Duration() time.Duration
}

// Service issues identity clients bound to the shared account and session stores.
type Service struct {
	accounts accountsStore
	sessions sessionStore
}

// NewService wires the identity service to its stores.
func NewService(accountsSvc accountsStore, sessionsSvc sessionStore) *Service {
	return &Service{accounts: accountsSvc, sessions: sessionsSvc}
}

// ChangePassword replaces the password of account uid. Existing sessions stay valid.
func (s *Service) ChangePassword(uid, newPassword string) error {
	if err := s.accounts.UpdatePassword(uid, newPassword); err != nil {
		return err
	}
	log.Printf("[identity] password changed uid=%s", uid)
	return nil
}

// DeleteAccount removes account uid and revokes every session it holds. It
// returns the number of sessions revoked.
func (s *Service) DeleteAccount(uid string) (int, error) {
	if err := s.accounts.Delete(uid); err != nil {
		return 0, err
	}
	revoked := s.sessions.RevokeAllForAccount(uid)
	log.Printf("[identity] account deleted uid=%s sessions_revoked=%d", uid, revoked)
	return revoked, nil
}

// NewClient returns a client that starts signed out. userAgent and ipAddress
// are recorded on sessions it creates.
func (s *Service) NewClient(userAgent, ipAddress string) *Client {
	return &Client{
		svc:       s,
		userAgent: userAgent,
		ipAddress: ipAddress,
	}
}

// StateListener receives the signed-in user, or ok=false when signed out.
type StateListener func(user models.UserSession, ok bool)

type listenerEntry struct {
	id int
	fn StateListener
}

// Client holds one signed-in identity and notifies listeners when it changes.
// Listeners run synchronously on the goroutine that changed the state and
// must not call back into the client.
type Client struct {
	svc       *Service
	userAgent string
	ipAddress string

	mu        sync.Mutex
	user      models.UserSession
	signedIn  bool
	listeners []listenerEntry
	nextID    int

	emitMu sync.Mutex
}

// Current returns the signed-in user, if any.
func (c *Client) Current() (models.UserSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.signedIn
}

// OnAuthStateChanged registers fn and immediately delivers the current state
// to it. The returned function removes the registration.
func (c *Client) OnAuthStateChanged(fn StateListener) func() {
	c.emitMu.Lock()
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})
	user, ok := c.user, c.signedIn
	c.mu.Unlock()
	fn(user, ok)
	c.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// SignUp creates an account and signs into it.
func (c *Client) SignUp(ctx context.Context, username, password string) (models.UserSession, error) {
	if err := ctx.Err(); err != nil {
		return models.UserSession{}, err
	}
	account, err := c.svc.accounts.Create(username, password)
	if err != nil {
		return models.UserSession{}, err
	}
	log.Printf("[identity] account created username=%q", account.Username)
	return c.startSession(account)
}

// SignIn verifies credentials and starts a new session.
func (c *Client) SignIn(ctx context.Context, username, password string) (models.UserSession, error) {
	if err := ctx.Err(); err != nil {
		return models.UserSession{}, err
	}
	account, err := c.svc.accounts.Authenticate(strings.TrimSpace(username), password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			return models.UserSession{}, ErrInvalidCredentials
		}
		return models.UserSession{}, err
	}
	return c.startSession(account)
}

// Resume restores a previously issued session token.
func (c *Client) Resume(ctx context.Context, token string) (models.UserSession, error) {
	if err := ctx.Err(); err != nil {
		return models.UserSession{}, err
	}
	session, err := c.svc.sessions.Validate(token)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) || errors.Is(err, sessions.ErrSessionExpired) || errors.Is(err, sessions.ErrInvalidToken) {
			return models.UserSession{}, ErrSessionInvalid
		}
		return models.UserSession{}, err
	}
	account, ok := c.svc.accounts.Get(session.AccountID)
	if !ok {
		_ = c.svc.sessions.Revoke(token)
		return models.UserSession{}, ErrSessionInvalid
	}

	user := userSession(account, session)
	c.setState(user, true)
	return user, nil
}

// Refresh slides the current session's expiry forward once less than half of
// its lifetime remains. The user does not change, so listeners are not notified.
func (c *Client) Refresh(ctx context.Context) (models.UserSession, error) {
	if err := ctx.Err(); err != nil {
		return models.UserSession{}, err
	}
	user, ok := c.Current()
	if !ok {
		return models.UserSession{}, ErrSessionInvalid
	}
	if !c.svc.accounts.Exists(user.UID) {
		return models.UserSession{}, ErrSessionInvalid
	}
	if time.Until(user.ExpiresAt) > c.svc.sessions.Duration()/2 {
		return user, nil
	}

	session, err := c.svc.sessions.Refresh(user.Token)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) || errors.Is(err, sessions.ErrSessionExpired) {
			return models.UserSession{}, ErrSessionInvalid
		}
		return models.UserSession{}, fmt.Errorf("refresh session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.signedIn || c.user.Token != session.Token {
		return models.UserSession{}, ErrSessionInvalid
	}
	c.user.ExpiresAt = session.ExpiresAt
	return c.user, nil
}

// SignOut revokes the current session token and notifies listeners.
// Signing out while already signed out is a no-op.
func (c *Client) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user, ok := c.Current()
	if !ok {
		return nil
	}
	if err := c.svc.sessions.Revoke(user.Token); err != nil && !errors.Is(err, sessions.ErrSessionNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	c.setState(models.UserSession{}, false)
	return nil
}

func (c *Client) startSession(account models.Account) (models.UserSession, error) {
	session, err := c.svc.sessions.Create(account.ID, c.userAgent, c.ipAddress)
	if err != nil {
		return models.UserSession{}, fmt.Errorf("create session: %w", err)
	}

	user := userSession(account, session)
	c.setState(user, true)
	return user, nil
}

func (c *Client) setState(user models.UserSession, ok bool) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.user, c.signedIn = user, ok
	listeners := make([]StateListener, len(c.listeners))
	for i, l := range c.listeners {
		listeners[i] = l.fn
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(user, ok)
	}
}

func userSession(account models.Account, session models.Session) models.UserSession {
	return models.UserSession{
		UID:       account.ID,
		Username:  account.Username,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}
}
