package handlers

import (
	"errors"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// helpDeskKey is the singleton record carrying the global counters
const helpDeskKey = "main"

// CreateTicketRequest opens a help desk ticket
type CreateTicketRequest struct {
	UID     string `json:"uid" binding:"required"`
	Topic   string `json:"topic" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message"`
	Email   string `json:"email" binding:"required"`
	Cell    string `json:"cell" binding:"required"`
}

// AssignTicketRequest hands a ticket to a support staff member
type AssignTicketRequest struct {
	TicketID      string `json:"ticket_id" binding:"required"`
	AssignedToUID string `json:"assigned_to_uid" binding:"required"`
}

// ThreadMessageRequest appends a message to a ticket conversation
type ThreadMessageRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
	SentBy   string `json:"sent_by" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

func threadKey(ticketID, threadID string) string {
	return ticketID + ":" + threadID
}

// CreateTicket handles POST /api/helpdesk/tickets
func (a *API) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	ticket, err := models.NewTicket(map[string]any{
		"ticket_id": uuid.NewString(),
		"uid":       req.UID,
		"topic":     req.Topic,
		"subject":   req.Subject,
		"message":   req.Message,
		"email":     req.Email,
		"cell":      req.Cell,
	})
	if err != nil {
		respondError(c, err, "Unable to create ticket")
		return
	}
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindTickets, ticket.TicketID, ticket); err != nil {
		respondError(c, err, "An Error occurred creating Ticket")
		return
	}
	a.bumpHelpDesk(c, func(h *models.HelpDesk) {
		h.TotalTickets++
		h.TotalTicketsOpened++
	})
	respondOK(c, "successfully created ticket", ticket)
}

// GetTicket handles GET /api/helpdesk/tickets/:ticketID
func (a *API) GetTicket(c *gin.Context) {
	ticket, _, err := a.loadTicket(c, c.Param("ticketID"))
	if err != nil {
		respondError(c, err, "Unable to find ticket")
		return
	}
	respondOK(c, "ticket found", ticket)
}

// ListTickets handles GET /api/helpdesk/tickets, optionally filtered by uid
func (a *API) ListTickets(c *gin.Context) {
	var (
		records []store.Record
		err     error
	)
	if uid := c.Query("uid"); uid != "" {
		records, err = a.store.Query(c.Request.Context(), store.KindTickets, "uid", uid)
	} else {
		records, err = a.store.List(c.Request.Context(), store.KindTickets)
	}
	if err != nil {
		respondError(c, err, "Unable to fetch tickets")
		return
	}
	tickets := make([]models.Ticket, 0, len(records))
	for _, rec := range records {
		var t models.Ticket
		if err := rec.Decode(&t); err != nil {
			continue
		}
		tickets = append(tickets, t)
	}
	respondOK(c, "tickets returned", tickets)
}

// UpdateTicket handles PUT /api/helpdesk/tickets, full field reassignment
func (a *API) UpdateTicket(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		respondFail(c, err.Error())
		return
	}
	ticketID, _ := body["ticket_id"].(string)

	allowed, err := a.guard(store.KindTickets, "ticket_id").CanUpdate(c.Request.Context(), ticketID)
	if err != nil {
		respondError(c, err, "Unable to verify ticket data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to update ticket")
		return
	}

	ticket, key, err := a.loadTicket(c, ticketID)
	if err != nil {
		respondError(c, err, "Unable to find ticket")
		return
	}
	if err := ticket.Apply(body); err != nil {
		respondError(c, err, "Unable to update ticket")
		return
	}
	if err := a.store.Put(c.Request.Context(), store.KindTickets, key, ticket); err != nil {
		respondError(c, err, "An Error occurred updating Ticket")
		return
	}
	respondOK(c, "successfully updated ticket", ticket)
}

// AssignTicket handles PUT /api/helpdesk/tickets/assign
func (a *API) AssignTicket(c *gin.Context) {
	var req AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindTickets, "ticket_id").CanUpdate(c.Request.Context(), req.TicketID)
	if err != nil {
		respondError(c, err, "Unable to verify ticket data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to assign ticket")
		return
	}

	ticket, key, err := a.loadTicket(c, req.TicketID)
	if err != nil {
		respondError(c, err, "Unable to find ticket")
		return
	}
	ticket.Assigned = true
	ticket.AssignedToUID = req.AssignedToUID
	ticket.TimeUpdated = models.Now()
	if err := a.store.Put(c.Request.Context(), store.KindTickets, key, ticket); err != nil {
		respondError(c, err, "An Error occurred assigning Ticket")
		return
	}
	respondOK(c, "successfully assigned ticket", ticket)
}

// ResolveTicket handles PUT /api/helpdesk/tickets/resolve
func (a *API) ResolveTicket(c *gin.Context) {
	var req struct {
		TicketID string `json:"ticket_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	allowed, err := a.guard(store.KindTickets, "ticket_id").CanUpdate(c.Request.Context(), req.TicketID)
	if err != nil {
		respondError(c, err, "Unable to verify ticket data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to resolve ticket")
		return
	}

	ticket, key, err := a.loadTicket(c, req.TicketID)
	if err != nil {
		respondError(c, err, "Unable to find ticket")
		return
	}
	alreadyResolved := ticket.IsResolved
	ticket.IsResolved = true
	ticket.TimeUpdated = models.Now()
	if err := a.store.Put(c.Request.Context(), store.KindTickets, key, ticket); err != nil {
		respondError(c, err, "An Error occurred resolving Ticket")
		return
	}
	if !alreadyResolved {
		a.bumpHelpDesk(c, func(h *models.HelpDesk) {
			if h.TotalTicketsOpened > 0 {
				h.TotalTicketsOpened--
			}
			h.TotalTicketsClosed++
		})
	}
	respondOK(c, "successfully resolved ticket", ticket)
}

// GetHelpDesk handles GET /api/helpdesk
func (a *API) GetHelpDesk(c *gin.Context) {
	desk, err := a.loadHelpDesk(c)
	if err != nil {
		respondError(c, err, "Unable to fetch help desk")
		return
	}
	respondOK(c, "help desk returned", desk)
}

// AddThreadMessage handles POST /api/helpdesk/threads
func (a *API) AddThreadMessage(c *gin.Context) {
	var req ThreadMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, err.Error())
		return
	}

	// messages may only be appended to an existing ticket
	allowed, err := a.guard(store.KindTickets, "ticket_id").CanUpdate(c.Request.Context(), req.TicketID)
	if err != nil {
		respondError(c, err, "Unable to verify ticket data")
		return
	}
	if !allowed {
		respondFail(c, "Unable to find ticket")
		return
	}

	thread, err := models.NewTicketThread(map[string]any{
		"ticket_id": req.TicketID,
		"thread_id": uuid.NewString(),
		"sent_by":   req.SentBy,
		"subject":   req.Subject,
		"message":   req.Message,
	})
	if err != nil {
		respondError(c, err, "Unable to create thread message")
		return
	}
	key := threadKey(thread.TicketID, thread.ThreadID)
	if err := a.store.PutIfAbsent(c.Request.Context(), store.KindTicketThreads, key, thread); err != nil {
		respondError(c, err, "An Error occurred creating Thread message")
		return
	}
	respondOK(c, "successfully created thread message", thread)
}

// ListThreadMessages handles GET /api/helpdesk/threads/:ticketID,
// ordered by creation time to form the conversation
func (a *API) ListThreadMessages(c *gin.Context) {
	records, err := a.store.Query(c.Request.Context(), store.KindTicketThreads, "ticket_id", c.Param("ticketID"))
	if err != nil {
		respondError(c, err, "Unable to fetch thread")
		return
	}
	messages := make([]models.TicketThread, 0, len(records))
	for _, rec := range records {
		var th models.TicketThread
		if err := rec.Decode(&th); err != nil {
			continue
		}
		messages = append(messages, th)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].TimeCreated.Before(messages[j].TimeCreated)
	})
	respondOK(c, "thread returned", messages)
}

// bumpHelpDesk applies a counter mutation to the singleton record;
// counter drift is tolerable, so a failed bump never fails the request
func (a *API) bumpHelpDesk(c *gin.Context, mutate func(*models.HelpDesk)) {
	desk, err := a.loadHelpDesk(c)
	if err != nil {
		return
	}
	mutate(desk)
	_ = a.store.Put(c.Request.Context(), store.KindHelpDesk, helpDeskKey, desk)
}

func (a *API) loadHelpDesk(c *gin.Context) (*models.HelpDesk, error) {
	rec, err := a.store.Get(c.Request.Context(), store.KindHelpDesk, helpDeskKey)
	if errors.Is(err, store.ErrNotFound) {
		return &models.HelpDesk{}, nil
	}
	if err != nil {
		return nil, err
	}
	var desk models.HelpDesk
	if err := rec.Decode(&desk); err != nil {
		return nil, err
	}
	return &desk, nil
}

func (a *API) loadTicket(c *gin.Context, ticketID string) (*models.Ticket, string, error) {
	rec, err := a.store.Get(c.Request.Context(), store.KindTickets, ticketID)
	if err != nil {
		return nil, "", err
	}
	var ticket models.Ticket
	if err := rec.Decode(&ticket); err != nil {
		return nil, "", err
	}
	return &ticket, rec.Key, nil
}
