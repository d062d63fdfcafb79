package diag

import (
	"errors"
	"testing"
)

func TestCollectorAccumulates(t *testing.T) {
	c := New(nil)
	c.Add(KindUnmatchedSubmission, "row 3", "no registration scored above %d", 4)
	c.AddError(KindFetchFailed, "Juvenile_Ladies_Short_Program_Jordan_Smith", errors.New("connection refused"))
	c.AddError(KindFetchFailed, "ignored", nil)

	records := c.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Kind != KindUnmatchedSubmission {
		t.Fatalf("unexpected kind: %v", records[0].Kind)
	}
	if records[0].Detail != "no registration scored above 4" {
		t.Fatalf("unexpected detail: %q", records[0].Detail)
	}
	if c.Count(KindFetchFailed) != 1 {
		t.Fatalf("unexpected count: %d", c.Count(KindFetchFailed))
	}
	if c.Count("") != 2 {
		t.Fatalf("unexpected total: %d", c.Count(""))
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	c := New(nil)
	c.Add(KindDataIntegrity, "row 1", "gender conflict")
	records := c.Records()
	records[0].Detail = "mutated"
	if c.Records()[0].Detail != "gender conflict" {
		t.Fatal("Records must return a copy")
	}
}
