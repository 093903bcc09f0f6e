package submit

import (
	"context"
	"time"

	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/dealflow/internal/wizard"
)

// RequestStore is the subset of requests.Store the submitter needs.
type RequestStore interface {
	Create(ctx context.Context, params requests.CreateParams) (*requests.Request, error)
	Update(ctx context.Context, id string, data form.Data) (*requests.Request, error)
	Load(ctx context.Context, flow, id string) (form.Data, error)
}

// StoreSubmitter persists submissions in the request store. A submission
// with an ID updates that request, otherwise a new one is created. It also
// serves as the wizard's edit-mode Loader.
type StoreSubmitter struct {
	store RequestStore
	now   func() time.Time
}

// NewStoreSubmitter wraps store.
func NewStoreSubmitter(store RequestStore) *StoreSubmitter {
	return &StoreSubmitter{store: store, now: time.Now}
}

// Submit implements wizard.Submitter.
func (s *StoreSubmitter) Submit(ctx context.Context, sub wizard.Submission) (wizard.Receipt, error) {
	var (
		req *requests.Request
		err error
	)
	if sub.ID != "" {
		req, err = s.store.Update(ctx, sub.ID, sub.Data)
	} else {
		req, err = s.store.Create(ctx, requests.CreateParams{
			ID:   NewRequestID(s.now(), nil),
			Flow: sub.Flow,
			Data: sub.Data,
		})
	}
	if err != nil {
		return wizard.Receipt{}, err
	}
	return wizard.Receipt{RequestID: req.ID, SubmittedAt: req.UpdatedAt}, nil
}

// Load implements wizard.Loader.
func (s *StoreSubmitter) Load(ctx context.Context, flow, id string) (form.Data, error) {
	return s.store.Load(ctx, flow, id)
}
