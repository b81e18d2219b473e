package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the knowledge base in two tables: entities (ordered by
// position) and their traits.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStoreFromDB wraps an open database and ensures the schema.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			image TEXT,
			guess_count INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS traits (
			entity TEXT NOT NULL,
			trait TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY(entity, trait),
			FOREIGN KEY(entity) REFERENCES entities(name)
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns all entities in position order, or the defaults when the
// database holds none.
func (s *SQLiteStore) Load(ctx context.Context) ([]knowledge.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, image, guess_count FROM entities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []knowledge.Entity
	index := make(map[string]int)
	for rows.Next() {
		var e knowledge.Entity
		var image sql.NullString
		if err := rows.Scan(&e.Name, &image, &e.Metadata.GuessCount); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Metadata.ImageURL = image.String
		e.Traits = map[string]float64{}
		index[e.Name] = len(entities)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entities: %w", err)
	}
	if len(entities) == 0 {
		return knowledge.DefaultEntities(), nil
	}

	traitRows, err := s.db.QueryContext(ctx, `SELECT entity, trait, value FROM traits`)
	if err != nil {
		return nil, fmt.Errorf("failed to query traits: %w", err)
	}
	defer traitRows.Close()

	for traitRows.Next() {
		var entity, trait string
		var value float64
		if err := traitRows.Scan(&entity, &trait, &value); err != nil {
			return nil, fmt.Errorf("failed to scan trait: %w", err)
		}
		if i, ok := index[entity]; ok {
			entities[i].Traits[trait] = value
		}
	}
	if err := traitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read traits: %w", err)
	}
	return entities, nil
}

// Save replaces every row in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, entities []knowledge.Entity) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM traits`); err != nil {
		return fmt.Errorf("failed to clear traits: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("failed to clear entities: %w", err)
	}

	for pos, e := range entities {
		query := `INSERT INTO entities (name, position, image, guess_count) VALUES (?, ?, ?, ?)`
		if _, err = tx.ExecContext(ctx, query, e.Name, pos, e.Metadata.ImageURL, e.Metadata.GuessCount); err != nil {
			return fmt.Errorf("failed to insert entity %q: %w", e.Name, err)
		}
		for trait, value := range e.Traits {
			query := `INSERT INTO traits (entity, trait, value) VALUES (?, ?, ?)`
			if _, err = tx.ExecContext(ctx, query, e.Name, trait, value); err != nil {
				return fmt.Errorf("failed to insert trait %q for %q: %w", trait, e.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit knowledge base: %w", err)
	}
	return nil
}
