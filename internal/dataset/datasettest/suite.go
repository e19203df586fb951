// Package datasettest is a compliance suite shared by dataset backends.
package datasettest

import (
	"context"
	"testing"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Fixture is the record set every backend is seeded with.
var Fixture = []model.Record{
	{Phone: "9876543210", AltPhone: "9123456780", Name: "Ravi Kumar", FatherName: "Suresh Kumar", Address: "!!12 MG Road!Bengaluru!!", Email: "ravi@example.com", Region: "KA", OperatorID: "1"},
	{Phone: "9876543210", Name: "Ravi K", FatherName: "Suresh Kumar", Address: "12 MG Road, Bengaluru", Email: "ravi.k@example.com", Region: "KA"},
	{Phone: "9123456780", AltPhone: "9988776655", Name: "Anita Rao", FatherName: "Mohan Rao", Address: "4 Park St!Kolkata", Email: "anita@example.org", Region: "WB"},
	{Phone: "9988776655", Name: "Deep Link", FatherName: "Far Away", Address: "Nowhere", Email: "deep@example.net", Region: "DL"},
	{Phone: "7000000001", Name: "100% Pure_Name", FatherName: "N/A", Address: "", Email: "", Region: "MH"},
}

// Run exercises a backend seeded with Fixture. makeBackend must return a fresh,
// isolated backend containing exactly those records.
func Run(t *testing.T, makeBackend func(t *testing.T, recs []model.Record) dataset.Backend) {
	t.Helper()

	b := makeBackend(t, Fixture)
	t.Cleanup(func() { _ = b.Close() })
	ctx := context.Background()

	if err := b.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}

	// Identifier exact match.
	recs, err := b.Lookup(ctx, model.KindIdentifier, "9876543210", 25)
	if err != nil {
		t.Fatalf("Lookup identifier: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Lookup identifier: want 2 records, got %d", len(recs))
	}
	if recs[0].AltPhone != "9123456780" && recs[1].AltPhone != "9123456780" {
		t.Fatalf("Lookup identifier: alt phone not scanned: %+v", recs)
	}

	// Identifier miss is empty, not an error.
	recs, err = b.Lookup(ctx, model.KindIdentifier, "6000000000", 25)
	if err != nil || len(recs) != 0 {
		t.Fatalf("Lookup miss: recs=%v err=%v", recs, err)
	}

	// Substring scans per column.
	cases := []struct {
		kind  model.FieldKind
		value string
		want  int
	}{
		{model.KindName, "Ravi", 2},
		{model.KindFatherName, "Rao", 1},
		{model.KindAddress, "MG Road", 2},
		{model.KindEmail, "example.org", 1},
		{model.KindEmail, "ravi@example.com", 1},
		{model.KindName, "100%", 1},
		{model.KindName, "e_N", 1},
		{model.KindName, "__", 0},
	}
	for _, c := range cases {
		recs, err := b.Lookup(ctx, c.kind, c.value, 25)
		if err != nil {
			t.Fatalf("Lookup %s %q: %v", c.kind, c.value, err)
		}
		if len(recs) != c.want {
			t.Fatalf("Lookup %s %q: want %d, got %d", c.kind, c.value, c.want, len(recs))
		}
	}

	// Limit caps scans.
	recs, err = b.Lookup(ctx, model.KindName, "a", 1)
	if err != nil || len(recs) != 1 {
		t.Fatalf("Lookup limit: recs=%d err=%v", len(recs), err)
	}

	// Unknown kind is a validation error.
	if _, err := b.Lookup(ctx, model.KindAuto, "x", 1); err == nil {
		t.Fatalf("Lookup auto: expected error")
	}

	st, err := b.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.ApproxRows < int64(len(Fixture)) || st.SizeBytes <= 0 {
		t.Fatalf("Stats: unexpected %+v", st)
	}
}
