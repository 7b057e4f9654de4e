package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
)

func (s *Server) ListRentalHistory(c *gin.Context) {
	resp, err := s.historySvc.List(c.Request.Context(), historydomain.ListHistoryRequest{
		PageToken:    c.Query("page_token"),
		PageSize:     pageSize(c),
		CustomerNo:   c.Query("customer_no"),
		CylinderID:   c.Query("cylinder_id"),
		ReturnedFrom: queryDate(c, "returned_from"),
		ReturnedTo:   queryDate(c, "returned_to"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) PruneRentalHistory(c *gin.Context) {
	days := 0
	if raw := strings.TrimSpace(c.Query("older_than_days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		days = parsed
	}

	result, err := s.historySvc.Prune(c.Request.Context(), days)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
