package store

import (
	"context"
	"path/filepath"
	"testing"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// createTestStore creates a store backed by a temp file database.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestAccount inserts an account and returns it.
func createTestAccount(t *testing.T, s *Store, name string, balance int64) treasury.Account {
	t.Helper()
	acc := treasury.Account{
		Name:     name,
		Bank:     "Banco Test",
		Currency: "EUR",
		Balance:  money.FromCents(balance),
		Active:   true,
	}
	if err := s.CreateAccount(context.Background(), &acc); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

// createTestParty inserts a third party of the given kind.
func createTestParty(t *testing.T, s *Store, name string, kind treasury.PartyKind) treasury.ThirdParty {
	t.Helper()
	p := treasury.ThirdParty{Name: name, Kind: kind, TaxID: "B12345678"}
	if err := s.CreateThirdParty(context.Background(), &p); err != nil {
		t.Fatalf("CreateThirdParty() failed: %v", err)
	}
	return p
}

func TestOpen_CreatesDatabase(t *testing.T) {
	s := createTestStore(t)
	if s.DB() == nil {
		t.Fatal("DB() returned nil")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	s2.Close()
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}
