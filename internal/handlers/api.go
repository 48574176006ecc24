package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockdesk/backend/internal/guards"
	"github.com/stockdesk/backend/internal/store"
	"github.com/stockdesk/backend/internal/validate"
)

// Datastore is the slice of the store the handlers consume
type Datastore interface {
	Get(ctx context.Context, kind, key string) (store.Record, error)
	Query(ctx context.Context, kind, field, value string) ([]store.Record, error)
	List(ctx context.Context, kind string) ([]store.Record, error)
	QueryRange(ctx context.Context, kind string, path []string, lower, upper int64) ([]store.Record, error)
	Latest(ctx context.Context, kind string, limit int) ([]store.Record, error)
	Exists(ctx context.Context, kind, field, value string) (bool, error)
	Put(ctx context.Context, kind, key string, doc any) error
	PutIfAbsent(ctx context.Context, kind, key string, doc any) error
}

// API holds the mutation orchestrators behind the HTTP surface
type API struct {
	store Datastore
	locks *KeyLocker
}

// New creates the API around a datastore
func New(datastore Datastore) *API {
	return &API{
		store: datastore,
		locks: NewKeyLocker(),
	}
}

func (a *API) guard(kind, field string) *guards.Guard {
	return guards.New(a.store, kind, field)
}

// Response is the JSON envelope every view returns
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

func respondOK(c *gin.Context, message string, payload any) {
	c.JSON(http.StatusOK, Response{Status: true, Message: message, Payload: payload})
}

// Every failure kind maps onto the same 500 envelope; the message
// carries the distinction
func respondFail(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{Status: false, Message: message})
}

// respondError converts a failure into the envelope, surfacing the
// offending field name on validation errors
func respondError(c *gin.Context, err error, fallback string) {
	var fieldErr *validate.FieldError
	switch {
	case errors.As(err, &fieldErr):
		respondFail(c, fieldErr.Error())
	case errors.Is(err, guards.ErrUnavailable):
		respondFail(c, "Unable to verify record state")
	case errors.Is(err, store.ErrNotFound):
		respondFail(c, "Unable to find record")
	case errors.Is(err, store.ErrConflict):
		respondFail(c, "Record already exists")
	default:
		respondFail(c, fallback)
	}
}
