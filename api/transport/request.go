package transport

import (
	"strings"

	"github.com/fastygo/caseboard/domain"
)

// TaskRequest is the body for creating or replacing a task. Assignment is
// one of assigned_user_id or assigned_pool_id.
type TaskRequest struct {
	IsUrgent         bool    `json:"is_urgent"`
	ContactName      string  `json:"contact_name"`
	ContactEmail     string  `json:"contact_email"`
	ContactTelephone *string `json:"contact_telephone"`
	ContactNotes     *string `json:"contact_notes"`
	Description      string  `json:"description"`
	Deadline         string  `json:"deadline"`
	AssignedUserID   *int64  `json:"assigned_user_id"`
	AssignedPoolID   *int64  `json:"assigned_pool_id"`
}

// ToInput converts the request into a domain input. Zero ids are treated as
// absent so form-style clients can send 0 for "none". The deadline is parsed
// by the use case, after any access check.
func (r TaskRequest) ToInput(id int64) domain.TaskInput {
	return domain.TaskInput{
		ID:       id,
		IsUrgent: r.IsUrgent,
		Contact: domain.Contact{
			Name:      r.ContactName,
			Email:     r.ContactEmail,
			Telephone: r.ContactTelephone,
			Notes:     r.ContactNotes,
		},
		Description:    r.Description,
		DeadlineText:   strings.TrimSpace(r.Deadline),
		AssignedUserID: positive(r.AssignedUserID),
		AssignedPoolID: positive(r.AssignedPoolID),
	}
}

type NoteRequest struct {
	Body string `json:"body"`
}

type TimeEntryRequest struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// CreatedResponse reports the id of a newly appended record.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

func positive(v *int64) *int64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
