package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionHeader carries the live session id on every admin response.
const SessionHeader = "X-Simbridge-Session"

// SessionLabel identifies the bridge session an admin request observed.
type SessionLabel struct {
	ID    string
	State string
}

// SessionLabeler reports the current session; ok is false before one starts.
type SessionLabeler func() (label SessionLabel, ok bool)

// AdminMiddleware tags each admin request with the session live when it
// arrived: the id goes into the response header and log line, the state
// into the request metrics. Scrapes of the metrics route log at trace.
func AdminMiddleware(logger zerolog.Logger, session SessionLabeler) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		label, ok := session()
		if !ok {
			label = SessionLabel{State: "none"}
		}
		if label.ID != "" {
			c.Header(SessionHeader, label.ID)
		}
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		RecordAdminRequest(c.Request.Method, route, label.State, status, elapsed)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case route == "/metrics":
			event = logger.Trace()
		default:
			event = logger.Debug()
		}
		event.
			Str("session", label.ID).
			Str("session_state", label.State).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("admin request")
	}
}
