package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"streamfront/config"
	"streamfront/internal/docstore"
	"streamfront/services/accounts"
	"streamfront/services/catalog"
	"streamfront/services/clients"
	"streamfront/services/identity"
	"streamfront/services/metadata"
	"streamfront/services/sessions"
)

const (
	cliUserAgent = "streamfront-cli"
	cliAddress   = "local"
)

var errNotLoggedIn = errors.New("not logged in; run `streamfront login` first")

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// stack is every long-lived service a command may need.
type stack struct {
	cfg      *config.Config
	metadata *metadata.Client
	catalog  *catalog.Service
	docs     docstore.Store
	accounts *accounts.Service
	sessions *sessions.Service
	identity *identity.Service
	registry *clients.Registry
}

func (c *commandContext) openStack(ctx context.Context) (*stack, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	meta, err := metadata.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		metadata.WithTimeout(time.Duration(cfg.TMDB.TimeoutSeconds)*time.Second))
	if err != nil {
		return nil, fmt.Errorf("metadata client: %w", err)
	}

	fs := afero.NewOsFs()
	accountsSvc, err := accounts.NewService(fs, cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	sessionsSvc, err := sessions.NewService(fs, cfg.Paths.DataDir, time.Duration(cfg.Sessions.DurationHours)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}

	docs, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		sessionsSvc.Close()
		return nil, fmt.Errorf("open document store: %w", err)
	}

	identitySvc := identity.NewService(accountsSvc, sessionsSvc)
	return &stack{
		cfg:      cfg,
		metadata: meta,
		catalog:  catalog.NewService(meta, cfg.TMDB.ImageBaseURL),
		docs:     docs,
		accounts: accountsSvc,
		sessions: sessionsSvc,
		identity: identitySvc,
		registry: clients.NewRegistry(identitySvc, docs),
	}, nil
}

func (c *commandContext) withStack(cmd *cobra.Command, fn func(*stack) error) error {
	s, err := c.openStack(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (s *stack) Close() {
	s.registry.Close()
	if err := s.docs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warn: close document store: %v\n", err)
	}
	s.sessions.Close()
}

// resume restores the session stored in the token file. It returns the
// instance and the token it was resolved from.
func (s *stack) resume(ctx context.Context) (*clients.Instance, string, error) {
	token, err := readToken(s.cfg.Paths.TokenFile)
	if err != nil {
		return nil, "", err
	}
	if token == "" {
		return nil, "", errNotLoggedIn
	}
	inst, err := s.registry.Resolve(ctx, token, cliUserAgent, cliAddress)
	if err != nil {
		if errors.Is(err, identity.ErrSessionInvalid) {
			_ = removeToken(s.cfg.Paths.TokenFile)
			return nil, "", fmt.Errorf("session expired; run `streamfront login` again")
		}
		return nil, "", err
	}
	return inst, token, nil
}

// signedIn resumes the stored session and waits for its favorites to load.
func (s *stack) signedIn(ctx context.Context) (*clients.Instance, error) {
	inst, _, err := s.resume(ctx)
	if err != nil {
		return nil, err
	}
	if err := inst.Favorites.Wait(ctx); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return inst, nil
}

// optionalFavorites marks cards for a logged-in user and stays quiet otherwise.
func (s *stack) optionalFavorites(ctx context.Context) catalog.FavoriteChecker {
	inst, err := s.signedIn(ctx)
	if err != nil {
		return nil
	}
	return inst.Favorites
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func writeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

func removeToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
