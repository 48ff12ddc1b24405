package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetOccupancy handles GET /api/occupancy.
func (h *Handler) GetOccupancy(c *gin.Context) {
	report, err := h.svc.ExitReport(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetFacility handles GET /api/facility.
func (h *Handler) GetFacility(c *gin.Context) {
	info, err := h.svc.FacilityInfo(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
