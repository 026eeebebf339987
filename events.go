package taskauth

import (
	"context"
	"time"
)

// SecurityEventType enumerates supported security event categories.
type SecurityEventType string

const (
	SecurityEventLoginSuccess SecurityEventType = "login_success"
	// SecurityEventLoginFailed is graded low for an ordinary bad credential
	// and high once the attempt cap is crossed; see loginFailureEvent.
	SecurityEventLoginFailed         SecurityEventType = "login_failed"
	SecurityEventLoginDeniedInactive SecurityEventType = "login_denied_inactive"
	SecurityEventRefreshFailed       SecurityEventType = "refresh_failed"
	SecurityEventRegistered          SecurityEventType = "user_registered"
	SecurityEventRoleChanged         SecurityEventType = "user_role_changed"
	SecurityEventStatusChanged       SecurityEventType = "user_status_changed"
)

// SecurityEventSeverity grades how urgently an event deserves attention.
type SecurityEventSeverity string

const (
	SeverityLow      SecurityEventSeverity = "low"
	SeverityMedium   SecurityEventSeverity = "medium"
	SeverityHigh     SecurityEventSeverity = "high"
	SeverityCritical SecurityEventSeverity = "critical"
)

// SecurityEvent captures audit-friendly information about an authentication
// attempt or account change. UserID is empty when the subject could not be
// resolved, e.g. a login against an unknown email.
type SecurityEvent struct {
	EventType  SecurityEventType
	Severity   SecurityEventSeverity
	UserID     string
	Email      string
	IPAddress  string
	Details    map[string]any
	OccurredAt time.Time
}

// SecurityRecorder consumes security events for auditing purposes. Recording
// is best effort: implementations may fail, and callers in the login and
// refresh paths must not let that failure change the outcome of the attempt.
type SecurityRecorder interface {
	Record(ctx context.Context, event SecurityEvent) error
}

// SecurityRecorderFunc adapts a function to the SecurityRecorder interface.
type SecurityRecorderFunc func(ctx context.Context, event SecurityEvent) error

// Record implements SecurityRecorder.
func (f SecurityRecorderFunc) Record(ctx context.Context, event SecurityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopSecurityRecorder struct{}

func (noopSecurityRecorder) Record(context.Context, SecurityEvent) error {
	return nil
}

func normalizeSecurityRecorder(r SecurityRecorder) SecurityRecorder {
	if r == nil {
		return noopSecurityRecorder{}
	}
	return r
}
