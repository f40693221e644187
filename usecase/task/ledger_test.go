package task

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fastygo/caseboard/domain"
)

func TestLogTimeTotals(t *testing.T) {
	orders := [][][2]int{
		{{2, 15}, {0, 50}},
		{{0, 50}, {2, 15}},
	}
	for _, order := range orders {
		f := newFixture(t)
		ctx := context.Background()
		id := f.create(t, ptr(f.alice.UserID), nil)

		for _, e := range order {
			if _, err := f.ledger.LogTime(ctx, id, f.alice, e[0], e[1]); err != nil {
				t.Fatal(err)
			}
		}

		total, err := f.ledger.TotalMinutes(ctx, id, f.alice)
		if err != nil {
			t.Fatal(err)
		}
		if total != 205 {
			t.Fatalf("order %v: expected 205, got %d", order, total)
		}
		task, _ := f.store.GetByID(ctx, id)
		if task.TotalMinutes != 205 {
			t.Fatalf("order %v: stored read expected 205, got %d", order, task.TotalMinutes)
		}
	}
}

// Out-of-range values are surfaced as validation errors and append nothing.
func TestLogTimeRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, ptr(f.alice.UserID), nil)

	tests := []struct {
		hours, minutes int
		want           error
	}{
		{0, 60, domain.ErrMinutesOutOfRange},
		{-1, 0, domain.ErrHoursOutOfRange},
		{0, -5, domain.ErrMinutesOutOfRange},
		{domain.MaxEntryHours + 1, 0, domain.ErrHoursOutOfRange},
		{1_000_000_000, 0, domain.ErrHoursOutOfRange},
	}
	for _, tc := range tests {
		_, err := f.ledger.LogTime(ctx, id, f.alice, tc.hours, tc.minutes)
		if !errors.Is(err, tc.want) || !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Fatalf("LogTime(%d, %d): expected %v, got %v", tc.hours, tc.minutes, tc.want, err)
		}
	}

	entries, _ := f.store.GetTimeEntries(ctx, id)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

// Entries at the cap keep every read path working.
func TestLogTimeAtCapKeepsReadsHealthy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, ptr(f.alice.UserID), nil)

	for i := 0; i < 2; i++ {
		if _, err := f.ledger.LogTime(ctx, id, f.alice, domain.MaxEntryHours, 59); err != nil {
			t.Fatalf("entry at cap: %v", err)
		}
	}
	want := 2 * (domain.MaxEntryHours*60 + 59)

	details, err := f.tasks.GetTask(ctx, id, f.alice)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if details.TotalMinutes != want || details.Task.TotalMinutes != want {
		t.Fatalf("expected %d minutes, got %d / %d", want, details.TotalMinutes, details.Task.TotalMinutes)
	}

	board, err := f.tasks.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(board.AllTasks) != 1 || board.AllTasks[0].TotalMinutes != want {
		t.Fatalf("unexpected dashboard: %+v", board.AllTasks)
	}
}

func TestLogTimeAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, nil, ptr(f.poolID))

	if _, err := f.ledger.LogTime(ctx, id, f.carol, 1, 0); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// access is checked before validation
	if _, err := f.ledger.LogTime(ctx, id, f.carol, 0, 60); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden before validation, got %v", err)
	}
	if _, err := f.ledger.LogTime(ctx, 9999, f.admin, 1, 0); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := f.ledger.LogTime(ctx, id, f.bob, 0, 45); err != nil {
		t.Fatalf("pool member should log time: %v", err)
	}
	if _, err := f.ledger.LogTime(ctx, id, f.admin, 3, 0); err != nil {
		t.Fatalf("admin should log time: %v", err)
	}
}

func TestLogTimeConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, ptr(f.alice.UserID), nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.LogTime(ctx, id, f.alice, 0, 15); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	total, err := f.ledger.TotalMinutes(ctx, id, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	if total != 300 {
		t.Fatalf("expected 300 minutes, got %d", total)
	}
}

func TestAddNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, ptr(f.alice.UserID), nil)

	noteID, err := f.ledger.AddNote(ctx, id, f.alice, "  Sent engagement letter \n")
	if err != nil || noteID == 0 {
		t.Fatalf("AddNote: id=%d err=%v", noteID, err)
	}

	for _, blank := range []string{"", "   ", "\n\t "} {
		noteID, err := f.ledger.AddNote(ctx, id, f.alice, blank)
		if err != nil || noteID != 0 {
			t.Fatalf("blank note %q: id=%d err=%v", blank, noteID, err)
		}
	}

	notes, err := f.store.GetNotes(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Body != "Sent engagement letter" || notes[0].AuthorUserID != f.alice.UserID {
		t.Fatalf("unexpected notes: %+v", notes)
	}

	names := f.events.names()
	if names[len(names)-1] != domain.EventTaskNoteAdded {
		t.Fatalf("expected last event to be note_added, got %v", names)
	}
}

func TestAddNoteForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, ptr(f.alice.UserID), nil)

	if _, err := f.ledger.AddNote(ctx, id, f.bob, "not mine"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	notes, _ := f.store.GetNotes(ctx, id)
	if len(notes) != 0 {
		t.Fatalf("expected no notes, got %d", len(notes))
	}
}
