package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user7217/oxygentracker/internal/orgcontext"
)

// TriggerOverdueReport runs the overdue-cylinder email sweep for the acting
// organization on demand, outside the daily schedule.
func (s *Server) TriggerOverdueReport(c *gin.Context) {
	if s.sched == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.sched.SweepOverdueNow(c.Request.Context(), orgID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
