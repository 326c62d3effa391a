package authsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfront/models"
	"streamfront/services/identity"
)

// fakeIdentity lets tests push auth state changes directly.
type fakeIdentity struct {
	listeners []identity.StateListener
	detached  int
	signInErr error
	refreshed models.UserSession
}

func (f *fakeIdentity) OnAuthStateChanged(fn identity.StateListener) func() {
	f.listeners = append(f.listeners, fn)
	fn(models.UserSession{}, false)
	return func() { f.detached++ }
}

func (f *fakeIdentity) emit(user models.UserSession, ok bool) {
	for _, fn := range f.listeners {
		fn(user, ok)
	}
}

func (f *fakeIdentity) SignIn(_ context.Context, username, _ string) (models.UserSession, error) {
	if f.signInErr != nil {
		return models.UserSession{}, f.signInErr
	}
	user := models.UserSession{UID: "uid-" + username, Username: username, Token: "tok"}
	f.emit(user, true)
	return user, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, username, password string) (models.UserSession, error) {
	return f.SignIn(ctx, username, password)
}

func (f *fakeIdentity) Resume(_ context.Context, token string) (models.UserSession, error) {
	user := models.UserSession{UID: "resumed", Token: token}
	f.emit(user, true)
	return user, nil
}

func (f *fakeIdentity) Refresh(context.Context) (models.UserSession, error) {
	return f.refreshed, nil
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.emit(models.UserSession{}, false)
	return nil
}

func TestProvider_StartsSignedOut(t *testing.T) {
	p := NewProvider(&fakeIdentity{})
	_, ok := p.CurrentUser()
	assert.False(t, ok)
}

func TestProvider_SubscribeDeliversCurrentValue(t *testing.T) {
	fake := &fakeIdentity{}
	p := NewProvider(fake)
	_, err := p.SignIn(context.Background(), "u1", "pw")
	require.NoError(t, err)

	var got []string
	p.Subscribe(func(user models.UserSession, ok bool) {
		got = append(got, user.UID)
	})
	assert.Equal(t, []string{"uid-u1"}, got)
}

func TestProvider_DeliversInSubscriptionOrder(t *testing.T) {
	fake := &fakeIdentity{}
	p := NewProvider(fake)

	var order []string
	p.Subscribe(func(models.UserSession, bool) { order = append(order, "first") })
	p.Subscribe(func(models.UserSession, bool) { order = append(order, "second") })
	p.Subscribe(func(models.UserSession, bool) { order = append(order, "third") })
	order = nil

	_, err := p.SignIn(context.Background(), "u1", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)

	user, ok := p.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "uid-u1", user.UID)
}

func TestProvider_UnsubscribeStopsDelivery(t *testing.T) {
	fake := &fakeIdentity{}
	p := NewProvider(fake)

	calls := 0
	unsubscribe := p.Subscribe(func(models.UserSession, bool) { calls++ })
	unsubscribe()

	require.NoError(t, p.SignOut(context.Background()))
	_, err := p.Resume(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestProvider_SignInFailureKeepsState(t *testing.T) {
	fake := &fakeIdentity{signInErr: errors.New("bad credentials")}
	p := NewProvider(fake)

	_, err := p.SignIn(context.Background(), "u1", "pw")
	assert.Error(t, err)
	_, ok := p.CurrentUser()
	assert.False(t, ok)
}

func TestProvider_Close(t *testing.T) {
	fake := &fakeIdentity{}
	p := NewProvider(fake)

	calls := 0
	p.Subscribe(func(models.UserSession, bool) { calls++ })
	p.Close()
	p.Close()

	assert.Equal(t, 1, fake.detached)
	fake.emit(models.UserSession{UID: "x"}, true)
	assert.Equal(t, 1, calls)
}

func TestProvider_RefreshUpdatesExpiryQuietly(t *testing.T) {
	fake := &fakeIdentity{}
	p := NewProvider(fake)
	_, err := p.SignIn(context.Background(), "u1", "pw")
	require.NoError(t, err)

	var deliveries int
	p.Subscribe(func(models.UserSession, bool) { deliveries++ })

	expires := time.Now().Add(time.Hour).UTC()
	fake.refreshed = models.UserSession{UID: "uid-u1", Username: "u1", Token: "tok", ExpiresAt: expires}
	_, err = p.Refresh(context.Background())
	require.NoError(t, err)

	user, ok := p.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, expires, user.ExpiresAt)
	assert.Equal(t, 1, deliveries, "refresh does not notify subscribers")
}
