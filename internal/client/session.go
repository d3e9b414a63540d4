package client

import (
	"context"
	"fmt"
)

const historyFetchLimit = 100

// Session drives the reconciliation loop: it binds the API client to a
// Timeline and keeps the timeline consistent across send completion and
// failure.
type Session struct {
	api      *Client
	timeline *Timeline
}

// NewSession creates a session over the given API client.
func NewSession(api *Client) *Session {
	return &Session{api: api, timeline: NewTimeline()}
}

// Timeline exposes the session's conversation state.
func (s *Session) Timeline() *Timeline {
	return s.timeline
}

// Refresh replaces the confirmed history with server truth. An in-flight
// send, if any, is left alone.
func (s *Session) Refresh(ctx context.Context) error {
	history, err := s.api.History(ctx, historyFetchLimit)
	if err != nil {
		return err
	}
	s.timeline.SetConfirmed(history)
	return nil
}

// Send stages the optimistic message, submits the prompt, and resolves
// the timeline back to server truth. On any failure the optimistic
// message is discarded and the error is surfaced on the timeline.
func (s *Session) Send(ctx context.Context, modelTag, prompt string) error {
	if _, err := s.timeline.Stage(modelTag, prompt); err != nil {
		return err
	}

	if _, err := s.api.Send(ctx, modelTag, prompt); err != nil {
		s.timeline.Fail(err)
		return err
	}

	history, err := s.api.History(ctx, historyFetchLimit)
	if err != nil {
		// The send landed but the refetch did not; drop the optimistic
		// copy anyway so the next refresh shows server truth once.
		s.timeline.Fail(err)
		return err
	}

	s.timeline.Resolve(history)
	return nil
}

// Delete removes a persisted user message and refreshes the confirmed
// history. Optimistic placeholders and assistant replies are refused
// locally.
func (s *Session) Delete(ctx context.Context, messageID string) error {
	for _, msg := range s.timeline.Messages() {
		if msg.ID == messageID && !s.timeline.CanDelete(msg) {
			return fmt.Errorf("message %s cannot be deleted", messageID)
		}
	}

	if err := s.api.Delete(ctx, messageID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}
