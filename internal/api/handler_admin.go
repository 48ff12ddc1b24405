package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guesthouse-occupancy-backend/internal/occupancy"
	"guesthouse-occupancy-backend/internal/store"
)

// GetAdmin handles GET /api/admin.
func (h *Handler) GetAdmin(c *gin.Context) {
	snap, err := h.svc.AdminSnapshot(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type settingsRequest struct {
	Capacity                 *int `json:"capacity"`
	EachPersonTime           *int `json:"eachPersonTime"`
	SettlementThresholdHours *int `json:"settlementThresholdHours"`
}

type settingsResponse struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// PostSettings handles POST /api/admin/settings.
func (h *Handler) PostSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithCode(c, http.StatusBadRequest, codeInvalidBody, "")
		return
	}

	for _, f := range []struct {
		name  string
		value *int
	}{
		{"capacity", req.Capacity},
		{"eachPersonTime", req.EachPersonTime},
		{"settlementThresholdHours", req.SettlementThresholdHours},
	} {
		if f.value == nil {
			abortWithCode(c, http.StatusBadRequest, occupancy.CodeMissingFields, f.name)
			return
		}
	}

	fs, err := h.svc.UpdateSettings(c.Request.Context(), store.SettingsUpdate{
		Capacity:                 *req.Capacity,
		EachPersonTime:           *req.EachPersonTime,
		SettlementThresholdHours: *req.SettlementThresholdHours,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse{Title: fs.Title, Status: "success"})
}
