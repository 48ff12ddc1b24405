package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"guesthouse-occupancy-backend/internal/occupancy"
	"guesthouse-occupancy-backend/internal/store"
)

// Stable error codes returned in the "error" field of failed responses.
const (
	codeInvalidBody           = "invalid_body"
	codeSettingsNotConfigured = "settings_not_configured"
	codeGuestNotFound         = "guest_not_found"
	codeStorageError          = "storage_error"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc   *occupancy.Service
	store store.Store
}

// NewHandler creates a new API handler.
func NewHandler(svc *occupancy.Service, s store.Store) *Handler {
	return &Handler{
		svc:   svc,
		store: s,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func abortWithCode(c *gin.Context, status int, code, field string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Field: field})
}

// abortWithError maps service and store errors onto HTTP responses.
func abortWithError(c *gin.Context, err error) {
	var verr *occupancy.ValidationError
	switch {
	case errors.As(err, &verr):
		abortWithCode(c, http.StatusBadRequest, verr.Code, verr.Field)
	case errors.Is(err, store.ErrSettingsNotConfigured):
		abortWithCode(c, http.StatusNotFound, codeSettingsNotConfigured, "")
	case errors.Is(err, store.ErrGuestNotFound):
		abortWithCode(c, http.StatusNotFound, codeGuestNotFound, "")
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithCode(c, http.StatusInternalServerError, codeStorageError, "")
	}
}

// Healthz reports whether the database answers a ping.
func (h *Handler) Healthz(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		log.Printf("health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
