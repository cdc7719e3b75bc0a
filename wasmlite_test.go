package wasmlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/SquattingSocrates/wasmlite"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/dialect"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/host"
	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

type user struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	Score     float64 `db:"score"`
	Avatar    []byte  `db:"avatar"`
	Active    bool    `db:"active"`
	CreatedAt string  `db:"created_at"`
}

const usersSchema = `CREATE TABLE users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	score      REAL NOT NULL DEFAULT 0,
	avatar     BLOB,
	active     INTEGER NOT NULL DEFAULT 0,
	created_at TEXT
)`

// newTestDB runs a host executor in-process, points the driver at it and
// opens a database through the public connect surface. The small batch size
// forces multi-step cursor traversal in the larger queries.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	h := host.New(host.Config{Driver: "sqlite", Root: t.TempDir(), BatchSize: 4})
	wasmlite.SetHostHandler(h.HandleRequest)
	t.Cleanup(h.Close)

	db, err := wasmlite.Connect("app.db")
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	db.MustExec(usersSchema)
	return db
}

func TestExecReportsMetadata(t *testing.T) {
	db := newTestDB(t)

	res, err := db.Exec("INSERT INTO users (name) VALUES (?)", "ada")
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if id, _ := res.LastInsertId(); id != 1 {
		t.Errorf("LastInsertId = %d, want 1", id)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Errorf("RowsAffected = %d, want 1", n)
	}

	res, err = db.Exec("UPDATE users SET score = score + 1")
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Errorf("RowsAffected after update = %d, want 1", n)
	}
}

func TestStructScanRoundTrip(t *testing.T) {
	db := newTestDB(t)

	created := time.Date(2024, 3, 9, 8, 15, 0, 0, time.UTC)
	_, err := db.Exec(
		"INSERT INTO users (name, score, avatar, active, created_at) VALUES (?, ?, ?, ?, ?)",
		"grace", 99.5, []byte{0xca, 0xfe}, true, created,
	)
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}

	var got user
	if err := db.Get(&got, "SELECT * FROM users WHERE name = ?", "grace"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != "grace" || got.Score != 99.5 || !got.Active {
		t.Errorf("scanned user = %+v", got)
	}
	if len(got.Avatar) != 2 || got.Avatar[0] != 0xca || got.Avatar[1] != 0xfe {
		t.Errorf("avatar = %v, want [ca fe]", got.Avatar)
	}

	parsed, err := time.Parse(time.RFC3339Nano, got.CreatedAt)
	if err != nil {
		t.Fatalf("created_at %q is not RFC3339Nano: %v", got.CreatedAt, err)
	}
	if !parsed.Equal(created) {
		t.Errorf("created_at = %v, want %v", parsed, created)
	}
}

func TestNullColumnsScanToNil(t *testing.T) {
	db := newTestDB(t)
	db.MustExec("INSERT INTO users (name) VALUES (?)", "blank")

	var avatar []byte
	var created *string
	err := db.QueryRow("SELECT avatar, created_at FROM users WHERE name = ?", "blank").Scan(&avatar, &created)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if avatar != nil {
		t.Errorf("avatar = %v, want nil for NULL", avatar)
	}
	if created != nil {
		t.Errorf("created_at = %q, want nil for NULL", *created)
	}
}

func TestSelectSpansCursorBatches(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 10; i++ {
		db.MustExec("INSERT INTO users (name, score) VALUES (?, ?)", "user", float64(i))
	}

	var scores []float64
	if err := db.Select(&scores, "SELECT score FROM users ORDER BY id"); err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(scores) != 10 {
		t.Fatalf("got %d rows, want 10", len(scores))
	}
	for i, s := range scores {
		if s != float64(i) {
			t.Errorf("row %d score = %v, want %d", i, s, i)
		}
	}
}

func TestExecDuringOpenRowsOnOneConnection(t *testing.T) {
	db := newTestDB(t)
	db.MustExec("CREATE TABLE notes (body TEXT NOT NULL)")
	for i := 0; i < 10; i++ {
		db.MustExec("INSERT INTO users (name, score) VALUES (?, ?)", "user", float64(i))
	}

	ctx := context.Background()
	c, err := db.Connx(ctx)
	if err != nil {
		t.Fatalf("Connx returned error: %v", err)
	}
	defer c.Close()

	rows, err := c.QueryxContext(ctx, "SELECT score FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("QueryxContext returned error: %v", err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatal("result set is empty")
	}

	// The partially consumed result set keeps a cursor open host-side; a
	// write on the same connection handle must not fail with a busy engine.
	if _, err := c.ExecContext(ctx, "INSERT INTO notes (body) VALUES (?)", "written mid-scan"); err != nil {
		t.Fatalf("exec with an open cursor on the same connection returned error: %v", err)
	}

	rest := 0
	for rows.Next() {
		rest++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("cursor failed after interleaved exec: %v", err)
	}
	if rest != 9 {
		t.Errorf("consumed %d rows after the first, want 9", rest)
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM notes"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("notes count = %d, want 1", count)
	}
}

func TestInsertReturning(t *testing.T) {
	db := newTestDB(t)

	q, err := dialect.Returning(dialect.SQLite{}, "INSERT INTO users (name) VALUES (?)", "id", "name")
	if err != nil {
		t.Fatalf("Returning returned error: %v", err)
	}
	var id int64
	var name string
	if err := db.QueryRow(q, "zed").Scan(&id, &name); err != nil {
		t.Fatalf("QueryRow returned error: %v", err)
	}
	if id != 1 || name != "zed" {
		t.Errorf("RETURNING gave id=%d name=%q, want 1 zed", id, name)
	}
}

func TestTransactionThroughPool(t *testing.T) {
	db := newTestDB(t)
	db.MustExec("INSERT INTO users (name) VALUES (?)", "base")

	tx := db.MustBegin()
	tx.MustExec("INSERT INTO users (name) VALUES (?)", "pending")

	var inside int
	if err := tx.Get(&inside, "SELECT COUNT(*) FROM users"); err != nil {
		t.Fatalf("Get inside transaction returned error: %v", err)
	}
	if inside != 2 {
		t.Errorf("count inside transaction = %d, want 2", inside)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback returned error: %v", err)
	}

	var after int
	if err := db.Get(&after, "SELECT COUNT(*) FROM users"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if after != 1 {
		t.Errorf("count after rollback = %d, want 1", after)
	}
}

func TestMalformedSQLIsQueryError(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec("CREATE GARBAGE")
	if err == nil {
		t.Fatal("malformed SQL succeeded")
	}
	if !types.IsQueryError(err) {
		t.Errorf("expected query error, got %v", err)
	}
}

func TestConnectRejectsEscapingPath(t *testing.T) {
	h := host.New(host.Config{Driver: "sqlite", Root: t.TempDir()})
	wasmlite.SetHostHandler(h.HandleRequest)
	t.Cleanup(h.Close)

	_, err := wasmlite.Connect("../escape.db")
	if err == nil {
		t.Fatal("Connect with an escaping path succeeded")
	}
	if !types.IsConnectionError(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestNamedQueryThroughSqlx(t *testing.T) {
	db := newTestDB(t)

	_, err := db.NamedExec(
		"INSERT INTO users (name, score, active, created_at) VALUES (:name, :score, :active, :created_at)",
		user{Name: "lin", Score: 7.5, Active: true, CreatedAt: "2024-03-09T08:15:00Z"},
	)
	if err != nil {
		t.Fatalf("NamedExec returned error: %v", err)
	}

	var got user
	if err := db.Get(&got, "SELECT * FROM users WHERE name = ?", "lin"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Score != 7.5 || !got.Active {
		t.Errorf("named insert round trip = %+v", got)
	}
}
