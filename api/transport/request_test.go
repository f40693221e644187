package transport

import "testing"

func TestTaskRequestToInput(t *testing.T) {
	zero := int64(0)
	pool := int64(3)
	req := TaskRequest{
		ContactName:    "Jane",
		ContactEmail:   "jane@example.com",
		Description:    "Draft reply",
		Deadline:       " 2026-11-20T17:00:00+02:00 ",
		AssignedUserID: &zero,
		AssignedPoolID: &pool,
	}

	in := req.ToInput(9)
	if in.ID != 9 || in.AssignedUserID != nil || in.AssignedPoolID == nil || *in.AssignedPoolID != 3 {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.DeadlineText != "2026-11-20T17:00:00+02:00" || !in.Deadline.IsZero() {
		t.Fatalf("deadline must be left for validation, got %q / %v", in.DeadlineText, in.Deadline)
	}
}

func TestTaskRequestToInputKeepsMalformedDeadline(t *testing.T) {
	in := TaskRequest{Deadline: "20/11/2026"}.ToInput(1)
	if in.DeadlineText != "20/11/2026" {
		t.Fatalf("expected raw deadline carried through, got %q", in.DeadlineText)
	}
}
