package sqldb

import (
	"context"
	"errors"
	"fmt"
	mathrand "math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"infobattle.org/internal/game"
)

func openSQLite(t *testing.T) (*Store, string) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "game.db")
	store, err := Open(DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, dsn
}

func newService(t *testing.T, store game.Store) *game.Service {
	t.Helper()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc := game.New(store,
		game.WithRand(mathrand.New(mathrand.NewSource(11))),
		game.WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
	)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return svc
}

func TestSQLiteFullRound(t *testing.T) {
	ctx := context.Background()
	store, dsn := openSQLite(t)
	svc := newService(t, store)

	entries := make([]game.ImportEntry, 0, 4)
	for i := 0; i < 4; i++ {
		entries = append(entries, game.ImportEntry{
			StudentID: fmt.Sprintf("2025%04d", 1001+i),
			Name:      fmt.Sprintf("Student %d", i+1),
		})
	}
	if _, err := svc.BulkAddPlayers(ctx, entries); err != nil {
		t.Fatalf("BulkAddPlayers: %v", err)
	}

	view, err := svc.StartRound(ctx, "", "")
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	var phisher, leader, citizen game.Participant
	for _, p := range view.Participants {
		switch p.Role {
		case game.RolePhisher:
			phisher = p
		case game.RoleLeader:
			leader = p
		case game.RoleCitizen:
			if citizen.PlayerID == "" {
				citizen = p
			}
		}
	}

	// Distribution and attachments survive the JSON column round trip.
	if _, err := svc.SubmitMessage(ctx, game.MessageDraft{
		RoundID:     view.ID,
		AuthorID:    phisher.PlayerID,
		Subject:     "Verify your account",
		Body:        "Open the attachment.",
		ContentHTML: "<p>Open the <b>attachment</b>.</p>",
		FromAlias:   "it-desk@city.example",
		Attachments: []game.Attachment{{Name: "form.pdf", Description: "verification form"}},
		Distribution: game.Distribution{
			Type:      game.DistDirect,
			PlayerIDs: []string{citizen.PlayerID},
		},
	}); err != nil {
		t.Fatalf("phisher message: %v", err)
	}
	if _, err := svc.SubmitMessage(ctx, game.MessageDraft{
		RoundID:  view.ID,
		AuthorID: leader.PlayerID,
		Subject:  "Official notice",
		Body:     "No attachments are ever sent by the city.",
	}); err != nil {
		t.Fatalf("leader message: %v", err)
	}

	view, err = svc.TransitionPhase(ctx, view.ID, game.PhaseJudging)
	if err != nil {
		t.Fatalf("to judging: %v", err)
	}
	var phisherMsg game.Message
	for _, m := range view.Messages {
		if m.Role == game.RolePhisher {
			phisherMsg = m
		}
	}
	if phisherMsg.Distribution.Type != game.DistDirect ||
		len(phisherMsg.Distribution.PlayerIDs) != 1 ||
		phisherMsg.Distribution.PlayerIDs[0] != citizen.PlayerID {
		t.Fatalf("distribution mangled: %+v", phisherMsg.Distribution)
	}
	if len(phisherMsg.Attachments) != 1 || phisherMsg.Attachments[0].Name != "form.pdf" {
		t.Fatalf("attachments mangled: %+v", phisherMsg.Attachments)
	}
	if phisherMsg.AuthorName == "" {
		t.Fatal("message not hydrated with author name")
	}

	if _, _, err := svc.SubmitJudgement(ctx, game.JudgementInput{
		RoundID:   view.ID,
		MessageID: phisherMsg.ID,
		PlayerID:  citizen.PlayerID,
		Verdict:   game.VerdictSuspect,
		Reasoning: "attachment bait",
	}); err != nil {
		t.Fatalf("SubmitJudgement: %v", err)
	}
	done, err := svc.TransitionPhase(ctx, view.ID, game.PhaseCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if done.FinishedAt == nil {
		t.Fatal("finished_at not persisted")
	}

	// Everything survives a process restart.
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened, err := Open(DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	players, err := reopened.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers after reopen: %v", err)
	}
	if len(players) != 4 {
		t.Fatalf("players after reopen = %d, want 4", len(players))
	}
	last, err := reopened.LatestRound(ctx)
	if err != nil {
		t.Fatalf("LatestRound after reopen: %v", err)
	}
	if last.ID != view.ID || last.Status != game.PhaseCompleted {
		t.Fatalf("round after reopen = %+v", last)
	}
	judgements, err := reopened.JudgementsByRound(ctx, view.ID)
	if err != nil {
		t.Fatalf("JudgementsByRound after reopen: %v", err)
	}
	if len(judgements) != 1 || judgements[0].Reasoning != "attachment bait" {
		t.Fatalf("judgements after reopen = %+v", judgements)
	}

	phisherRow, err := reopened.GetPlayer(ctx, phisher.PlayerID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if phisherRow.RoundsAsPhisher != 1 {
		t.Fatalf("phisher counter = %d, want 1", phisherRow.RoundsAsPhisher)
	}
}

func TestSQLiteNotFoundSentinels(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)

	if _, err := store.GetPlayer(ctx, "missing"); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("GetPlayer: %v", err)
	}
	if _, err := store.FindPlayerBySuffix(ctx, "1234"); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("FindPlayerBySuffix: %v", err)
	}
	if _, err := store.GetRound(ctx, "missing"); !errors.Is(err, game.ErrRoundNotFound) {
		t.Fatalf("GetRound: %v", err)
	}
	if _, err := store.LatestRound(ctx); !errors.Is(err, game.ErrRoundNotFound) {
		t.Fatalf("LatestRound: %v", err)
	}
	if _, err := store.GetScenario(ctx, "missing"); !errors.Is(err, game.ErrScenarioNotFound) {
		t.Fatalf("GetScenario: %v", err)
	}
	if _, err := store.GetMessage(ctx, "missing"); !errors.Is(err, game.ErrMessageNotFound) {
		t.Fatalf("GetMessage: %v", err)
	}
	if _, err := store.MessageByRole(ctx, "r", game.RolePhisher); !errors.Is(err, game.ErrMessageNotFound) {
		t.Fatalf("MessageByRole: %v", err)
	}
	if err := store.TouchLastLogin(ctx, "missing", time.Now()); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	if err := store.SetRoundStatus(ctx, "missing", game.PhaseJudging, nil); !errors.Is(err, game.ErrRoundNotFound) {
		t.Fatalf("SetRoundStatus: %v", err)
	}
}

func TestSQLiteSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)

	scenarios := game.SeedScenarios()
	if err := store.SeedScenarios(ctx, scenarios); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := store.SeedScenarios(ctx, scenarios); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	got, err := store.ListScenarios(ctx)
	if err != nil {
		t.Fatalf("ListScenarios: %v", err)
	}
	if len(got) != len(scenarios) {
		t.Fatalf("scenarios = %d, want %d", len(got), len(scenarios))
	}
}

func TestSQLiteResetKeepsCatalog(t *testing.T) {
	ctx := context.Background()
	store, _ := openSQLite(t)
	svc := newService(t, store)

	if _, err := svc.BulkAddPlayers(ctx, []game.ImportEntry{
		{StudentID: "20251111", Name: "Ada"},
		{StudentID: "20252222", Name: "Lin"},
		{StudentID: "20253333", Name: "Sam"},
	}); err != nil {
		t.Fatalf("BulkAddPlayers: %v", err)
	}
	if _, err := svc.StartRound(ctx, "", ""); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	players, err := store.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("players after reset = %d, want 0", len(players))
	}
	if _, err := store.LatestRound(ctx); !errors.Is(err, game.ErrRoundNotFound) {
		t.Fatalf("rounds not cleared: %v", err)
	}
	scenarios, err := store.ListScenarios(ctx)
	if err != nil {
		t.Fatalf("ListScenarios: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("scenario catalog must survive a reset")
	}
	templates, err := store.ListTemplates(ctx, "", "")
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("template catalog must survive a reset")
	}
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	pg := NewWithDB(nil, DialectPostgres)
	got := pg.q("UPDATE players SET last_login = ? WHERE id = ?")
	want := "UPDATE players SET last_login = $1 WHERE id = $2"
	if got != want {
		t.Fatalf("q() = %q, want %q", got, want)
	}

	lite := NewWithDB(nil, DialectSQLite)
	if got := lite.q("SELECT ?"); got != "SELECT ?" {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestPostgresQueryShapes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db, DialectPostgres)
	ctx := context.Background()

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE players SET last_login = \$1 WHERE id = \$2`).
		WithArgs(formatTime(at), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.TouchLastLogin(ctx, "p1", at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}

	mock.ExpectExec(`UPDATE rounds SET status = \$1, finished_at = \$2 WHERE id = \$3`).
		WithArgs("completed", formatTime(at), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.SetRoundStatus(ctx, "r1", game.PhaseCompleted, &at); err != nil {
		t.Fatalf("SetRoundStatus: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
