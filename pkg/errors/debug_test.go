package errors

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDumpPostgresError(t *testing.T) {
	cause := &pq.Error{Code: "23505", Constraint: "products_pkey", Table: "products", Message: "duplicate key"}
	err := Wrap(CodeConflict, fmt.Errorf("upsert: %w", cause), "product exists")

	d := Dump(err)
	if d.Code != CodeConflict || d.DBDriver != "postgres" || d.DBCode != "23505" {
		t.Fatalf("unexpected dump %+v", d)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three chain entries, got %v", d.Chain)
	}
	fields := d.Fields()
	if fields["db_constraint"] != "products_pkey" || fields["db_table"] != "products" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["db_detail"]; ok {
		t.Fatal("empty db fields must be omitted")
	}
}

func TestDumpSQLiteError(t *testing.T) {
	cause := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	d := Dump(fmt.Errorf("insert: %w", cause))
	if d.DBDriver != "sqlite" || d.DBCode != "2067" {
		t.Fatalf("unexpected dump %+v", d)
	}
}

func TestDumpPlainError(t *testing.T) {
	d := Dump(New(CodeValidation, "bad"))
	fields := d.Fields()
	if _, ok := fields["db_code"]; ok {
		t.Fatalf("plain error must not carry db fields: %v", fields)
	}
	if Dump(nil).TopMessage != "" {
		t.Fatal("nil error dumps empty")
	}
}
