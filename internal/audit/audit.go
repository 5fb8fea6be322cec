// Package audit implements the execution engine's per-query audit hook
// for a single-user embeddable engine with no session or permission
// concept: one Hook is told about every query that finishes, successful
// or not.
package audit

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Hook is notified once per executed statement.
type Hook interface {
	Query(queryID, query string, d time.Duration, rowCount int64, err error)
}

const message = "audit trail"

// LogHook logs every query to a logrus.Logger under the "audit" system
// field, mirroring auth/audit.go's AuditLog.
type LogHook struct {
	log *logrus.Entry
}

// NewLogHook creates a Hook that logs to l.
func NewLogHook(l *logrus.Logger) *LogHook {
	return &LogHook{log: l.WithField("system", "audit")}
}

// Query implements Hook.
func (h *LogHook) Query(queryID, query string, d time.Duration, rowCount int64, err error) {
	fields := logrus.Fields{
		"action":    "query",
		"query_id":  queryID,
		"query":     query,
		"duration":  d,
		"row_count": rowCount,
		"success":   true,
	}
	if err != nil {
		fields["success"] = false
		fields["err"] = err
	}
	h.log.WithFields(fields).Info(message)
}

// NopHook discards every event; it is the default when a Config carries
// no Logger.
type NopHook struct{}

// Query implements Hook.
func (NopHook) Query(string, string, time.Duration, int64, error) {}
