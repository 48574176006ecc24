package models

import (
	"time"

	"github.com/stockdesk/backend/internal/validate"
)

// Who a thread message was sent by
const (
	SentByStaff  = "staff"
	SentByClient = "client"
)

// HelpDesk carries the global ticket counters
type HelpDesk struct {
	TotalTickets       int64 `json:"total_tickets"`
	TotalTicketsOpened int64 `json:"total_tickets_opened"`
	TotalTicketsClosed int64 `json:"total_tickets_closed"`
}

// NewHelpDesk constructs validated help desk counters
func NewHelpDesk(data map[string]any) (*HelpDesk, error) {
	total, err := optInt(data, "total_tickets", 0)
	if err != nil {
		return nil, err
	}
	opened, err := optInt(data, "total_tickets_opened", 0)
	if err != nil {
		return nil, err
	}
	closed, err := optInt(data, "total_tickets_closed", 0)
	if err != nil {
		return nil, err
	}
	return &HelpDesk{
		TotalTickets:       total,
		TotalTicketsOpened: opened,
		TotalTicketsClosed: closed,
	}, nil
}

// Ticket is a single help desk ticket
type Ticket struct {
	TicketID            string    `json:"ticket_id"`
	UID                 string    `json:"uid"`
	Topic               string    `json:"topic"`
	Subject             string    `json:"subject"`
	Message             string    `json:"message"`
	Email               string    `json:"email"`
	Cell                string    `json:"cell"`
	Assigned            bool      `json:"assigned"`
	AssignedToUID       string    `json:"assigned_to_uid"`
	ResponseSent        bool      `json:"response_sent"`
	IsResolved          bool      `json:"is_resolved"`
	ClientNotResponding bool      `json:"client_not_responding"`
	TimeCreated         time.Time `json:"time_created"`
	TimeUpdated         time.Time `json:"time_updated"`
}

// NewTicket constructs a validated ticket; time_created is stamped here
// and immutable, time_updated is refreshed on every write
func NewTicket(data map[string]any) (*Ticket, error) {
	ticketID, err := validate.ID("ticket_id", data["ticket_id"])
	if err != nil {
		return nil, err
	}
	uid, err := validate.ID("uid", data["uid"])
	if err != nil {
		return nil, err
	}
	topic, err := validate.TrimmedString("topic", data["topic"])
	if err != nil {
		return nil, err
	}
	subject, err := validate.TrimmedString("subject", data["subject"])
	if err != nil {
		return nil, err
	}
	message, err := validate.TrimmedString("message", data["message"])
	if err != nil {
		return nil, err
	}
	email, err := validate.TrimmedString("email", data["email"])
	if err != nil {
		return nil, err
	}
	cell, err := validate.TrimmedString("cell", data["cell"])
	if err != nil {
		return nil, err
	}
	assigned, err := optBool(data, "assigned", false)
	if err != nil {
		return nil, err
	}
	assignedToUID, err := optString(data, "assigned_to_uid")
	if err != nil {
		return nil, err
	}
	responseSent, err := optBool(data, "response_sent", false)
	if err != nil {
		return nil, err
	}
	isResolved, err := optBool(data, "is_resolved", false)
	if err != nil {
		return nil, err
	}
	clientNotResponding, err := optBool(data, "client_not_responding", false)
	if err != nil {
		return nil, err
	}
	now := Now()
	return &Ticket{
		TicketID:            ticketID,
		UID:                 uid,
		Topic:               topic,
		Subject:             subject,
		Message:             message,
		Email:               email,
		Cell:                cell,
		Assigned:            assigned,
		AssignedToUID:       assignedToUID,
		ResponseSent:        responseSent,
		IsResolved:          isResolved,
		ClientNotResponding: clientNotResponding,
		TimeCreated:         now,
		TimeUpdated:         now,
	}, nil
}

// Apply reassigns the mutable fields, keeping the creation timestamp
// and refreshing the update timestamp
func (t *Ticket) Apply(data map[string]any) error {
	next, err := NewTicket(data)
	if err != nil {
		return err
	}
	next.TimeCreated = t.TimeCreated
	*t = *next
	return nil
}

// Equal compares tickets by natural key only
func (t *Ticket) Equal(other *Ticket) bool {
	if other == nil {
		return false
	}
	return t.TicketID == other.TicketID && t.UID == other.UID
}

// TicketThread is one message in a ticket conversation.
// Sort by ticket_id then time_created, mark by sent_by to build the thread.
type TicketThread struct {
	TicketID    string    `json:"ticket_id"`
	ThreadID    string    `json:"thread_id"`
	SentBy      string    `json:"sent_by"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	TimeCreated time.Time `json:"time_created"`
}

// NewTicketThread constructs a validated thread message; sent_by must
// be either staff or client
func NewTicketThread(data map[string]any) (*TicketThread, error) {
	ticketID, err := validate.ID("ticket_id", data["ticket_id"])
	if err != nil {
		return nil, err
	}
	threadID, err := validate.ID("thread_id", data["thread_id"])
	if err != nil {
		return nil, err
	}
	sentBy, err := validate.LowerName("sent_by", data["sent_by"])
	if err != nil {
		return nil, err
	}
	if sentBy != SentByStaff && sentBy != SentByClient {
		return nil, &validate.FieldError{Field: "sent_by", Kind: validate.TypeMismatch, Reason: "can only be staff or client"}
	}
	subject, err := validate.TrimmedString("subject", data["subject"])
	if err != nil {
		return nil, err
	}
	message, err := validate.TrimmedString("message", data["message"])
	if err != nil {
		return nil, err
	}
	return &TicketThread{
		TicketID:    ticketID,
		ThreadID:    threadID,
		SentBy:      sentBy,
		Subject:     subject,
		Message:     message,
		TimeCreated: Now(),
	}, nil
}

// Equal compares thread messages by natural key only
func (t *TicketThread) Equal(other *TicketThread) bool {
	if other == nil {
		return false
	}
	return t.TicketID == other.TicketID && t.ThreadID == other.ThreadID
}
