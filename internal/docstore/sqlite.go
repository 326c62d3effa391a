package docstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"streamfront/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLite stores favorites documents in a local database file.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and migrates it.
func NewSQLite(path string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	connString := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", path)
	conn, err := sql.Open("sqlite3", connString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(15 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("verify migration version: %w", err)
	}
	log.Printf("[docstore] sqlite schema at version %d", version)
	return nil
}

func (s *SQLite) Get(ctx context.Context, uid string) (models.FavoritesDocument, error) {
	exists, err := s.exists(ctx, s.conn, uid)
	if err != nil {
		return models.FavoritesDocument{}, err
	}
	if !exists {
		return models.FavoritesDocument{}, ErrNotFound
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT movie_id, title, poster_path, vote_average FROM favorite_entries WHERE uid = ? ORDER BY seq`, uid)
	if err != nil {
		return models.FavoritesDocument{}, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	doc := models.FavoritesDocument{UID: uid, Favorites: []models.FavoriteEntry{}}
	for rows.Next() {
		var entry models.FavoriteEntry
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.PosterPath, &entry.VoteAverage); err != nil {
			return models.FavoritesDocument{}, fmt.Errorf("scan favorite: %w", err)
		}
		doc.Favorites = append(doc.Favorites, entry)
	}
	if err := rows.Err(); err != nil {
		return models.FavoritesDocument{}, fmt.Errorf("iterate favorites: %w", err)
	}
	return doc, nil
}

func (s *SQLite) Create(ctx context.Context, uid string) error {
	if _, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO favorites_documents (uid) VALUES (?)`, uid); err != nil {
		return fmt.Errorf("create favorites document: %w", err)
	}
	return nil
}

func (s *SQLite) AddToSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	return s.withDocument(ctx, uid, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO favorite_entries (uid, movie_id, title, poster_path, vote_average) VALUES (?, ?, ?, ?, ?)`,
			uid, entry.ID, entry.Title, entry.PosterPath, entry.VoteAverage)
		if err != nil {
			return fmt.Errorf("add favorite: %w", err)
		}
		return nil
	})
}

func (s *SQLite) RemoveFromSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	return s.withDocument(ctx, uid, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM favorite_entries WHERE uid = ? AND movie_id = ? AND title = ? AND poster_path = ? AND vote_average = ?`,
			uid, entry.ID, entry.Title, entry.PosterPath, entry.VoteAverage)
		if err != nil {
			return fmt.Errorf("remove favorite: %w", err)
		}
		return nil
	})
}

func (s *SQLite) Delete(ctx context.Context, uid string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_entries WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites_documents WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("delete favorites document: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

// withDocument runs fn in a transaction after checking the document exists.
func (s *SQLite) withDocument(ctx context.Context, uid string, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.exists(ctx, tx, uid)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) exists(ctx context.Context, q queryer, uid string) (bool, error) {
	var found string
	err := q.QueryRowContext(ctx, `SELECT uid FROM favorites_documents WHERE uid = ?`, uid).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup favorites document: %w", err)
	}
	return true, nil
}
