package models

import (
	"testing"
	"time"
)

func TestTicketStatusTransitions(t *testing.T) {
	if !TicketPending.CanTransition(TicketPaid) {
		t.Fatal("pending -> paid should be legal")
	}
	if !TicketPaid.CanTransition(TicketCompleted) {
		t.Fatal("paid -> completed should be legal")
	}
	if TicketCompleted.CanTransition(TicketPaid) {
		t.Fatal("completed -> paid must not be legal")
	}
	if TicketPaid.CanTransition(TicketPending) {
		t.Fatal("paid -> pending must not be legal")
	}
	if TicketStatus("bogus").CanTransition(TicketPaid) {
		t.Fatal("unknown status must not transition")
	}
	// staying put is allowed
	if !TicketPaid.CanTransition(TicketPaid) {
		t.Fatal("paid -> paid should be legal")
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	if !OrderPending.CanTransition(OrderInProgress) {
		t.Fatal("pending -> in-progress should be legal")
	}
	if !OrderInProgress.CanTransition(OrderCompleted) {
		t.Fatal("in-progress -> completed should be legal")
	}
	if OrderCompleted.CanTransition(OrderInProgress) {
		t.Fatal("completed -> in-progress must not be legal")
	}
}

func TestStatusColor(t *testing.T) {
	cases := map[string]string{
		"pending":     "amber",
		"in-progress": "blue",
		"in_progress": "blue",
		"completed":   "green",
		"":            "gray",
		"whatever":    "gray",
	}
	for in, want := range cases {
		if got := StatusColor(in); got != want {
			t.Errorf("StatusColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	if !ValidCategory("Bushfire") {
		t.Fatal("Bushfire should be a valid category")
	}
	if !ValidCategory("NatHERS & BASIX") {
		t.Fatal("NatHERS & BASIX should be a valid category")
	}
	if ValidCategory("Astrology") {
		t.Fatal("Astrology should not be a valid category")
	}
}

func TestJobEngagementLookup(t *testing.T) {
	j := &Job{
		Consultants: map[string][]Engagement{
			"Bushfire": {
				{Name: "A", ConsultantID: "C1"},
				{Name: "B", ConsultantID: "C2"},
			},
		},
	}
	e := j.Engagement("Bushfire", "C2")
	if e == nil || e.Name != "B" {
		t.Fatalf("expected engagement B, got %+v", e)
	}
	if j.Engagement("Bushfire", "C9") != nil {
		t.Fatal("expected nil for unknown consultant")
	}
	if j.Engagement("Heritage", "C1") != nil {
		t.Fatal("expected nil for unknown category")
	}
}

func TestDocumentAddVersion(t *testing.T) {
	d := &Document{}
	d.AddVersion(DocumentVersion{Version: 1, FileName: "a.pdf", UploadedAt: time.Now()})
	d.AddVersion(DocumentVersion{Version: 0, FileName: "b.pdf", UploadedAt: time.Now()})
	if d.CurrentVersion != 2 {
		t.Fatalf("expected current version 2 got %d", d.CurrentVersion)
	}
	if v := d.Version(2); v == nil || v.FileName != "b.pdf" {
		t.Fatalf("expected version 2 to be b.pdf, got %+v", v)
	}
	// non-contiguous versions survive deletes
	d.Versions = d.Versions[1:]
	if v := d.Version(1); v != nil {
		t.Fatalf("expected version 1 gone, got %+v", v)
	}
	if d.CurrentVersion != 2 {
		t.Fatalf("current version should stay 2, got %d", d.CurrentVersion)
	}
}
