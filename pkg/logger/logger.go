// Package logger holds the request-log entry shipped to Kafka by the API and
// indexed by the log keeper, plus shared logrus setup.
package logger

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogEntry describes one served HTTP request.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Service    string    `json:"service"`
	Actor      string    `json:"actor,omitempty"`
}

// SetLevel sets the logrus level from one of debug, info, warn or error.
func SetLevel(level string) error {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}
