package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/felixgeelhaar/genie/internal/knowledge"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS entities")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS traits")).WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		t.Fatalf("NewSQLiteStoreFromDB failed: %v", err)
	}
	return s, mock
}

func TestSQLiteStore_SaveFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM traits").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM entities").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO entities").
		WithArgs("Spider-Man", 0, "https://tinyurl.com/spidey-img", 0).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.Save(context.Background(), knowledge.DefaultEntities()[:1])
	if err == nil {
		t.Fatal("expected save error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM traits").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM entities").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	if err := s.Save(context.Background(), nil); err == nil {
		t.Fatal("expected commit error")
	}
}

func TestSQLiteStore_LoadFailure(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectQuery("SELECT name, image, guess_count FROM entities").WillReturnError(errors.New("no such table"))

	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLiteStore_LoadOrder(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectQuery("SELECT name, image, guess_count FROM entities").
		WillReturnRows(sqlmock.NewRows([]string{"name", "image", "guess_count"}).
			AddRow("Batman", nil, 1).
			AddRow("Spider-Man", "https://tinyurl.com/spidey-img", 0))
	mock.ExpectQuery("SELECT entity, trait, value FROM traits").
		WillReturnRows(sqlmock.NewRows([]string{"entity", "trait", "value"}).
			AddRow("Spider-Man", "red", 1.0).
			AddRow("Batman", "wears a cape", 1.0).
			AddRow("Ghost", "invisible", 1.0))

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Batman" || got[1].Name != "Spider-Man" {
		t.Fatalf("expected position order, got %+v", got)
	}
	if got[0].Metadata.GuessCount != 1 || got[0].Traits["wears a cape"] != 1.0 || got[0].Metadata.ImageURL != "" {
		t.Errorf("unexpected Batman: %+v", got[0])
	}
}
