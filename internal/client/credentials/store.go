// Package credentials persists the session token and the serialized user
// record in the local metadata table. Both entries are written and cleared
// together in a single transaction.
package credentials

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophdrive/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
)

// Metadata keys holding the credential pair.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Entries is the raw content of the store. The Has* flags distinguish an
// absent entry from an empty one.
type Entries struct {
	Token    string
	User     []byte
	HasToken bool
	HasUser  bool
}

// Empty reports whether neither entry is present.
func (e Entries) Empty() bool {
	return !e.HasToken && !e.HasUser
}

// Store is the SQLite-backed credential store.
type Store struct {
	db *sql.DB
}

// NewStore binds the store to an open database with the metadata schema applied.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) repo(tx dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

// Load reads both entries.
func (s *Store) Load(ctx context.Context) (Entries, error) {
	var e Entries
	repo := s.repo(s.db)

	token, found, err := repo.Get(ctx, TokenKey)
	if err != nil {
		return Entries{}, err
	}
	e.Token, e.HasToken = string(token), found

	user, found, err := repo.Get(ctx, UserKey)
	if err != nil {
		return Entries{}, err
	}
	e.User, e.HasUser = user, found

	return e, nil
}

// Save writes the token and the user record atomically.
func (s *Store) Save(ctx context.Context, token string, user []byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if err := repo.Set(ctx, TokenKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, UserKey, user)
	})
}

// Clear removes both entries atomically. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Delete(ctx, TokenKey, UserKey)
	})
}
