package nats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName    = "dealflow_events"
	subjectPrefix = "dealflow.requests"

	// Retention for request history. Requests are business records, so this
	// is long.
	retention = 365 * 24 * time.Hour
)

// Event actions on a request.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionStatus = "status"
)

// SubjectForRequest returns the wildcard subject for every event of one
// request, e.g. "dealflow.requests.REQ-1.>".
func SubjectForRequest(id string) string {
	return fmt.Sprintf("%s.%s.>", subjectPrefix, id)
}

// SubjectForEvent returns the subject of one action on a request, e.g.
// "dealflow.requests.REQ-1.update".
func SubjectForEvent(id, action string) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, id, action)
}

// AllRequests is the wildcard subject for every request event.
func AllRequests() string {
	return subjectPrefix + ".>"
}

// ValidToken reports whether s can be used as a single subject token.
func ValidToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".*> \t\r\n")
}

// SetupStream creates or updates the JetStream stream holding request events.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{AllRequests()},
		Storage:  jetstream.FileStorage,
		MaxAge:   retention,
	})
}
