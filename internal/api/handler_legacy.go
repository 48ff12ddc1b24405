package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"guesthouse-occupancy-backend/internal/occupancy"
	"guesthouse-occupancy-backend/internal/parse"
	"guesthouse-occupancy-backend/internal/store"
)

// Handlers for the first deployment's front end. They run the same
// operations as the /api routes but keep that client's field names and
// status strings. Error responses use the regular error body; the client only
// looks at the status code.

const (
	legacyStatusCreatedBefore = "created before"
	legacyStatusRemoved       = "person removed"
	legacyStatusNotFound      = "there is no such person"
)

type legacyGuest struct {
	ID                 string    `json:"id"`
	UID                uint64    `json:"UID"`
	Name               string    `json:"name"`
	Family             string    `json:"family"`
	EnterTime          time.Time `json:"enter_time"`
	FormattedEnterTime string    `json:"formated_enter_time"`
	Duration           int64     `json:"duration"`
	FormattedDuration  string    `json:"formated_duration"`
}

func toLegacyGuests(views []occupancy.GuestView) []legacyGuest {
	out := make([]legacyGuest, len(views))
	for i, v := range views {
		out[i] = legacyGuest{
			ID:                 v.ID,
			UID:                v.UID,
			Name:               v.Name,
			Family:             v.Family,
			EnterTime:          v.EnterTime,
			FormattedEnterTime: v.FormattedEnterTime,
			Duration:           v.Duration,
			FormattedDuration:  v.FormattedDuration,
		}
	}
	return out
}

// LegacyAdminPage handles GET /admin_page/.
func (h *Handler) LegacyAdminPage(c *gin.Context) {
	snap, err := h.svc.AdminSnapshot(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active_guests":           snap.ActiveGuests,
		"capacity":                snap.Capacity,
		"highest_settlement_time": snap.SettlementThresholdHours,
	})
}

type legacySettingsRequest struct {
	Capacity              json.RawMessage `json:"capacity"`
	EachPersonTime        json.RawMessage `json:"each_person_time"`
	HighestSettlementTime json.RawMessage `json:"highest_settlement_time"`
}

// LegacySetAdminSettings handles POST /set_admin_settings/. Form values
// arrive as strings.
func (h *Handler) LegacySetAdminSettings(c *gin.Context) {
	var req legacySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, http.StatusBadRequest, codeInvalidBody, "")
		return
	}

	var update store.SettingsUpdate
	for _, f := range []struct {
		name string
		raw  json.RawMessage
		dst  *int
	}{
		{"capacity", req.Capacity, &update.Capacity},
		{"each_person_time", req.EachPersonTime, &update.EachPersonTime},
		{"highest_settlement_time", req.HighestSettlementTime, &update.SettlementThresholdHours},
	} {
		n, err := parse.Int(f.raw)
		if errors.Is(err, parse.ErrMissing) {
			abortWithCode(c, http.StatusBadRequest, occupancy.CodeMissingFields, f.name)
			return
		}
		if err != nil {
			abortWithCode(c, http.StatusBadRequest, occupancy.CodeInvalidValue, f.name)
			return
		}
		*f.dst = n
	}

	fs, err := h.svc.UpdateSettings(c.Request.Context(), update)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse{Title: fs.Title, Status: "success"})
}

// LegacySetGuest handles POST /set_guest/.
func (h *Handler) LegacySetGuest(c *gin.Context) {
	out, uid, ok := h.registerGuest(c)
	if !ok {
		return
	}
	if out.Result == store.RegisterAlreadyExists {
		c.JSON(http.StatusOK, gin.H{"status": legacyStatusCreatedBefore})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"UID": uid, "status": "created"})
}

// LegacySetExitPage handles GET /set_exit_page/. Guests are listed in
// registration order; the client prepends each row itself.
func (h *Handler) LegacySetExitPage(c *gin.Context) {
	roster, err := h.svc.GuestRoster(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	slices.Reverse(roster)
	c.JSON(http.StatusOK, gin.H{"Data": toLegacyGuests(roster)})
}

// LegacySetExit handles POST /set_exit/.
func (h *Handler) LegacySetExit(c *gin.Context) {
	res, ok := h.removeGuest(c)
	if !ok {
		return
	}
	status := legacyStatusRemoved
	if res == store.RemoveNotFound {
		status = legacyStatusNotFound
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// LegacyExitPage handles GET /exit_page/. "capactiy" is the key the client reads.
func (h *Handler) LegacyExitPage(c *gin.Context) {
	report, err := h.svc.ExitReport(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"highest_settlement_time": report.SettlementThresholdHours,
		"capactiy":                report.Capacity,
		"active_guests":           report.ActiveGuests,
		"percent":                 report.Percent,
		"completed_95":            report.Completed95,
		"users":                   toLegacyGuests(report.OverstayRoster),
	})
}
