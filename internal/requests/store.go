// Package requests persists submitted wizard records as an append-only event
// log in JetStream. Current state is rebuilt by replaying the events.
package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/nats"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrNotFound is returned when no events exist for a request id.
var ErrNotFound = errors.New("request not found")

// Status is the lifecycle position of a request.
type Status string

const (
	StatusPending Status = "pending"
	StatusFunded  Status = "funded"
	StatusClosed  Status = "closed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusFunded, StatusClosed}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s (must be pending, funded, or closed)", s)
}

// Event is one entry of the request event log.
type Event struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Request   string          `json:"request"`
	Flow      string          `json:"flow,omitempty"`
	Action    string          `json:"action"`
	Status    Status          `json:"status,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Request is the reduced state of one record.
type Request struct {
	ID        string    `json:"id"`
	Flow      string    `json:"flow"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	Revision  int       `json:"revision"`
	Data      form.Data `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State is every request reduced from the log.
type State struct {
	Requests map[string]*Request `json:"requests"`
}

// Apply folds one event into the state.
func (st *State) Apply(event Event) {
	switch event.Action {
	case nats.ActionCreate:
		var data form.Data
		if err := json.Unmarshal(event.Data, &data); err != nil {
			logger.Warn("Skipping create event %s with bad data: %v", event.ID, err)
			return
		}
		title := titleOf(event.Request, data)
		st.Requests[event.Request] = &Request{
			ID:        event.Request,
			Flow:      event.Flow,
			Title:     title,
			Slug:      slug.Make(title),
			Status:    StatusPending,
			Revision:  1,
			Data:      data,
			CreatedAt: event.Timestamp,
			UpdatedAt: event.Timestamp,
		}

	case nats.ActionUpdate:
		req, ok := st.Requests[event.Request]
		if !ok {
			return
		}
		var data form.Data
		if err := json.Unmarshal(event.Data, &data); err != nil {
			logger.Warn("Skipping update event %s with bad data: %v", event.ID, err)
			return
		}
		req.Data = data
		req.Title = titleOf(req.ID, data)
		req.Slug = slug.Make(req.Title)
		req.Revision++
		req.UpdatedAt = event.Timestamp

	case nats.ActionStatus:
		if req, ok := st.Requests[event.Request]; ok {
			req.Status = event.Status
			req.UpdatedAt = event.Timestamp
		}
	}
}

func titleOf(id string, data form.Data) string {
	for _, key := range []string{"title", "fullName"} {
		if s := data.String(key); s != "" {
			return s
		}
	}
	return id
}

// Store publishes request events and rebuilds state from them.
type Store struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	now    func() time.Time
}

// NewStore creates a Store over an existing stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream) *Store {
	return &Store{js: js, stream: stream, now: time.Now}
}

// PublishEvent appends event to the log under
// dealflow.requests.<request>.<action>.
func (s *Store) PublishEvent(ctx context.Context, event Event) (*jetstream.PubAck, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForEvent(event.Request, event.Action)
	logger.Debug("Publishing event: request=%s action=%s", event.Request, event.Action)

	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}
	return ack, nil
}

// LoadState replays events matching filter (a subject pattern) into a State.
func (s *Store) LoadState(ctx context.Context, filter string) (*State, error) {
	consumer, err := s.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	state := &State{Requests: make(map[string]*Request)}

	info, err := s.stream.Info(ctx, jetstream.WithSubjectFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}
	pending := 0
	for _, n := range info.State.Subjects {
		pending += int(n)
	}

	const batchSize = 500
	malformed := 0
	for pending > 0 {
		msgs, err := consumer.Fetch(min(batchSize, pending), jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}
		got := 0
		for msg := range msgs.Messages() {
			got++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				malformed++
				continue
			}
			state.Apply(event)
		}
		if err := msgs.Error(); err != nil {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}
		if got == 0 {
			break
		}
		pending -= got
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed events while loading state", malformed)
	}
	return state, nil
}

// CreateParams describes a new request.
type CreateParams struct {
	ID   string    `json:"id"`
	Flow string    `json:"flow"`
	Data form.Data `json:"data"`
}

// Create records a new request in pending status.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Request, error) {
	if !nats.ValidToken(params.ID) {
		return nil, fmt.Errorf("invalid request id %q", params.ID)
	}
	if params.Flow == "" {
		return nil, fmt.Errorf("flow is required")
	}
	if _, err := s.Get(ctx, params.ID); err == nil {
		return nil, fmt.Errorf("request %s already exists", params.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	data, err := json.Marshal(params.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}
	if _, err := s.PublishEvent(ctx, Event{
		Request: params.ID,
		Flow:    params.Flow,
		Action:  nats.ActionCreate,
		Data:    data,
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, params.ID)
}

// Update replaces the data of an existing request.
func (s *Store) Update(ctx context.Context, id string, values form.Data) (*Request, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusClosed {
		return nil, fmt.Errorf("request %s is closed", id)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request data: %w", err)
	}
	if _, err := s.PublishEvent(ctx, Event{
		Request: id,
		Flow:    req.Flow,
		Action:  nats.ActionUpdate,
		Data:    data,
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetStatus moves a request along its lifecycle. Closed is terminal.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) (*Request, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == status {
		return req, nil
	}
	if req.Status == StatusClosed {
		return nil, fmt.Errorf("request %s is closed", id)
	}

	if _, err := s.PublishEvent(ctx, Event{
		Request: id,
		Action:  nats.ActionStatus,
		Status:  status,
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns one request.
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	if !nats.ValidToken(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	state, err := s.LoadState(ctx, nats.SubjectForRequest(id))
	if err != nil {
		return nil, err
	}
	req, ok := state.Requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return req, nil
}

// Load returns the stored data of a request. It satisfies the wizard's
// edit-mode loader port.
func (s *Store) Load(ctx context.Context, flow, id string) (form.Data, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow != "" && req.Flow != flow {
		return nil, fmt.Errorf("request %s belongs to flow %s, not %s", id, req.Flow, flow)
	}
	return req.Data, nil
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status Status `json:"status,omitempty"`
	Flow   string `json:"flow,omitempty"`
}

// List returns matching requests, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	state, err := s.LoadState(ctx, nats.AllRequests())
	if err != nil {
		return nil, err
	}

	var out []*Request
	for _, req := range state.Requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Flow != "" && req.Flow != filter.Flow {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
