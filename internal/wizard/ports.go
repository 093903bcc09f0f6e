package wizard

import (
	"context"
	"time"

	"github.com/mark3labs/dealflow/internal/form"
)

// Submission is what the controller hands to a Submitter. ID is empty for a
// new request and set when updating an existing one.
type Submission struct {
	Flow string    `json:"flow"`
	ID   string    `json:"id,omitempty"`
	Data form.Data `json:"data"`
}

// Receipt is the result of a successful submission.
type Receipt struct {
	RequestID   string    `json:"request_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submitter persists a completed form.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	return f(ctx, sub)
}

// Loader fetches an existing record for edit mode.
type Loader interface {
	Load(ctx context.Context, flow, id string) (form.Data, error)
}

// Navigator is the routing collaborator. The controller never owns routes,
// it only asks to go somewhere.
type Navigator interface {
	NavigateTo(path string, state map[string]any)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string, state map[string]any)

func (f NavigatorFunc) NavigateTo(path string, state map[string]any) {
	f(path, state)
}

type noopNavigator struct{}

func (noopNavigator) NavigateTo(string, map[string]any) {}

// Routes requested from the Navigator.
const (
	RouteRequests   = "/requests"
	RouteNewRequest = "/requests/new"
)

// RequestRoute is the detail route of one request.
func RequestRoute(id string) string {
	return RouteRequests + "/" + id
}
