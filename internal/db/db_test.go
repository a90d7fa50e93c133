package db

import "testing"

func TestRebind(t *testing.T) {
	sqlite := &DB{Driver: DriverSQLite}
	pg := &DB{Driver: DriverPostgres}

	q := `SELECT * FROM items WHERE id = ? AND name = '?' AND status = ?`

	if got := sqlite.Rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}

	want := `SELECT * FROM items WHERE id = $1 AND name = '?' AND status = $2`
	if got := pg.Rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	d := NewTestDB(t)
	if err := EnsureSchema(d); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
