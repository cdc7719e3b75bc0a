package dialect

import (
	"testing"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

func TestSQLiteDescriptor(t *testing.T) {
	d := SQLite{}
	if d.Placeholder(1) != "?" || d.Placeholder(5) != "?" {
		t.Error("SQLite placeholders must be positional ?")
	}
	if !d.SupportsReturning() {
		t.Error("SQLite supports RETURNING")
	}
	if got := d.QuoteIdentifier(`my"col`); got != `"my""col"` {
		t.Errorf("QuoteIdentifier = %s", got)
	}
}

func TestReturning(t *testing.T) {
	q, err := Returning(SQLite{}, "INSERT INTO t (a) VALUES (?)", "id", "a")
	if err != nil {
		t.Fatalf("Returning returned error: %v", err)
	}
	want := `INSERT INTO t (a) VALUES (?) RETURNING "id", "a"`
	if q != want {
		t.Errorf("Returning = %q, want %q", q, want)
	}
}

func TestReturningAllColumns(t *testing.T) {
	q, err := Returning(SQLite{}, "DELETE FROM t")
	if err != nil {
		t.Fatalf("Returning returned error: %v", err)
	}
	if q != "DELETE FROM t RETURNING *" {
		t.Errorf("Returning = %q", q)
	}
}

type noReturning struct{ SQLite }

func (noReturning) Name() string            { return "legacy" }
func (noReturning) SupportsReturning() bool { return false }

func TestReturningUnsupported(t *testing.T) {
	_, err := Returning(noReturning{}, "INSERT INTO t (a) VALUES (?)", "id")
	if err == nil {
		t.Fatal("expected error for dialect without RETURNING")
	}
	if !types.IsQueryError(err) {
		t.Errorf("expected query error, got %v", err)
	}
}
