package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.Sessions.DurationHours < 0 {
		return errors.New("sessions.duration_hours must not be negative")
	}
	if c.RateLimit.AuthPerMinute < 0 || c.RateLimit.AuthBurst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'streamfront config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite:
		return nil
	case StoreFirestore:
		if c.Store.FirestoreProject == "" {
			return errors.New("store.firestore_project is required when store.backend is firestore")
		}
		return nil
	default:
		return fmt.Errorf("store.backend %q is not one of memory, sqlite, firestore", c.Store.Backend)
	}
}
