package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	"go.uber.org/zap"
)

const (
	HeaderOrg       = "X-Org-ID"
	HeaderRequestID = "X-Request-ID"

	contextRequestIDKey = "request_id"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(contextRequestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		log.Info("request", fields...)
	}
}

// OrgContext resolves the acting organization from the X-Org-ID header,
// falling back to the configured default for single-tenant deployments.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := s.cfg.DefaultOrgID
		if raw := strings.TrimSpace(c.GetHeader(HeaderOrg)); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				AbortWithError(c, ErrInvalidRequest)
				return
			}
			orgID = parsed
		}
		if orgID == 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), snowflake.ID(orgID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
