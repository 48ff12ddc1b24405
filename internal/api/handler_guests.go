package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"guesthouse-occupancy-backend/internal/occupancy"
	"guesthouse-occupancy-backend/internal/parse"
	"guesthouse-occupancy-backend/internal/store"
)

type registerRequest struct {
	UID    json.RawMessage `json:"UID"`
	Name   string          `json:"name"`
	Family string          `json:"family"`
}

type registerResponse struct {
	UID    *uint64 `json:"UID,omitempty"`
	Status string  `json:"status"`
}

// PostGuest handles POST /api/guests.
func (h *Handler) PostGuest(c *gin.Context) {
	out, uid, ok := h.registerGuest(c)
	if !ok {
		return
	}
	if out.Result == store.RegisterAlreadyExists {
		c.JSON(http.StatusOK, registerResponse{Status: string(out.Result)})
		return
	}
	c.JSON(http.StatusCreated, registerResponse{UID: &uid, Status: string(out.Result)})
}

// registerGuest binds and validates a registration and runs it. Missing
// fields are reported before a malformed UID. On failure the response has
// already been written.
func (h *Handler) registerGuest(c *gin.Context) (*occupancy.RegisterOutcome, uint64, bool) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, http.StatusBadRequest, codeInvalidBody, "")
		return nil, 0, false
	}

	uid, uidErr := parse.UID(req.UID)
	switch {
	case errors.Is(uidErr, parse.ErrMissing):
		abortWithCode(c, http.StatusBadRequest, occupancy.CodeMissingFields, "UID")
		return nil, 0, false
	case parse.Name(req.Name) == "":
		abortWithCode(c, http.StatusBadRequest, occupancy.CodeMissingFields, "name")
		return nil, 0, false
	case parse.Name(req.Family) == "":
		abortWithCode(c, http.StatusBadRequest, occupancy.CodeMissingFields, "family")
		return nil, 0, false
	case uidErr != nil:
		abortWithCode(c, http.StatusBadRequest, occupancy.CodeInvalidUID, "UID")
		return nil, 0, false
	}

	out, err := h.svc.RegisterGuest(c.Request.Context(), uid, req.Name, req.Family)
	if err != nil {
		abortWithError(c, err)
		return nil, 0, false
	}
	return out, uid, true
}

// GetGuests handles GET /api/guests.
func (h *Handler) GetGuests(c *gin.Context) {
	guests, err := h.svc.GuestRoster(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests})
}

type exitRequest struct {
	UID json.RawMessage `json:"UID"`
}

// PostExit handles POST /api/guests/exit.
func (h *Handler) PostExit(c *gin.Context) {
	res, ok := h.removeGuest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(res)})
}

func (h *Handler) removeGuest(c *gin.Context) (store.RemoveResult, bool) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, http.StatusBadRequest, codeInvalidBody, "")
		return "", false
	}

	uid, err := parse.UID(req.UID)
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, occupancy.CodeInvalidUID, "UID")
		return "", false
	}

	res, err := h.svc.RemoveGuest(c.Request.Context(), uid)
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	return res, true
}
