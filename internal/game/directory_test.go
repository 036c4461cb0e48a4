package game

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBulkAddPlayersReportsPerEntry(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	results, err := svc.BulkAddPlayers(ctx, []ImportEntry{
		{StudentID: "20251234", Name: "Ada"},
		{StudentID: "20251234", Name: "Duplicate Ada"},
		{StudentID: "", Name: "Nameless"},
		{StudentID: "20250000", Name: "Reserved"},
		{StudentID: "  20255678  ", Name: ""},
	})
	if err != nil {
		t.Fatalf("BulkAddPlayers: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}

	if !results[0].Inserted || results[0].ID == "" {
		t.Fatalf("first entry should insert: %+v", results[0])
	}
	if results[1].Inserted || !strings.Contains(results[1].Reason, "already exists") {
		t.Fatalf("duplicate should be rejected: %+v", results[1])
	}
	if results[2].Inserted || !strings.Contains(results[2].Reason, "missing") {
		t.Fatalf("empty id should be rejected: %+v", results[2])
	}
	if results[3].Inserted || !strings.Contains(results[3].Reason, "reserved") {
		t.Fatalf("admin suffix should be rejected: %+v", results[3])
	}
	if !results[4].Inserted {
		t.Fatalf("trimmed entry should insert: %+v", results[4])
	}
	if results[4].StudentID != "20255678" {
		t.Fatalf("student id not trimmed: %q", results[4].StudentID)
	}
	if results[4].Name != "20255678" {
		t.Fatalf("blank name should fall back to the student id, got %q", results[4].Name)
	}

	players, err := svc.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("directory size = %d, want 2", len(players))
	}
}

func TestResolveLoginAdminSentinel(t *testing.T) {
	svc, _ := newTestService(t, 3)
	res, err := svc.ResolveLogin(context.Background(), "0000")
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	if !res.Admin || res.Player != nil {
		t.Fatalf("expected a pure admin login, got %+v", res)
	}
}

func TestResolveLoginMatchesSuffix(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.BulkAddPlayers(ctx, []ImportEntry{
		{StudentID: "20191234", Name: "Old"},
		{StudentID: "20251234", Name: "New"},
	}); err != nil {
		t.Fatalf("BulkAddPlayers: %v", err)
	}

	res, err := svc.ResolveLogin(ctx, "1234")
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	if res.Admin || res.Player == nil {
		t.Fatalf("expected a player login, got %+v", res)
	}
	if res.Player.StudentID != "20251234" {
		t.Fatalf("suffix collision must pick the newest player, got %s", res.Player.StudentID)
	}
	if res.Player.LastLogin == nil {
		t.Fatal("login must stamp last_login")
	}
	if res.Assignment != RoleCitizen {
		t.Fatalf("default assignment = %s, want %s", res.Assignment, RoleCitizen)
	}
}

func TestResolveLoginUnknownSuffix(t *testing.T) {
	svc, _ := newTestService(t, 3)
	if _, err := svc.ResolveLogin(context.Background(), "9999"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestResolveLoginReportsCurrentAssignment(t *testing.T) {
	svc, _ := newTestService(t, 3)
	ctx := context.Background()
	view, err := svc.StartRound(ctx, "", "")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	phisher := participantWithRole(t, view, RolePhisher)
	res, err := svc.ResolveLogin(ctx, phisher.StudentID[len(phisher.StudentID)-4:])
	if err != nil {
		t.Fatalf("ResolveLogin: %v", err)
	}
	if res.Assignment != RolePhisher {
		t.Fatalf("assignment = %s, want %s", res.Assignment, RolePhisher)
	}
}
