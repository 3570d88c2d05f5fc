package service

import (
	"context"
	"fmt"

	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/pkg/logger"
)

// EventRequest is a DOM event forwarded by a client. Target is an element
// id; an empty target fires at the document body.
type EventRequest struct {
	Type           string      `json:"type"`
	Target         string      `json:"target,omitempty"`
	ClientX        float64     `json:"client_x,omitempty"`
	ClientY        float64     `json:"client_y,omitempty"`
	Touches        []dom.Touch `json:"touches,omitempty"`
	ChangedTouches []dom.Touch `json:"changed_touches,omitempty"`
}

// DispatchResult reports what the board did with an event.
type DispatchResult struct {
	DefaultPrevented bool         `json:"default_prevented"`
	State            SessionState `json:"state"`
}

var knownEvents = map[string]bool{ //nolint:gochecknoglobals // read-only lookup
	dom.EventDragStart:   true,
	dom.EventDragOver:    true,
	dom.EventDrop:        true,
	dom.EventDragEnd:     true,
	dom.EventTouchStart:  true,
	dom.EventTouchMove:   true,
	dom.EventTouchEnd:    true,
	dom.EventTouchCancel: true,
	dom.EventClick:       true,
}

// Dispatch fires a client event into the session document. Listeners run
// synchronously, so the returned state already reflects any move.
func (s *Service) Dispatch(ctx context.Context, id string, req EventRequest) (DispatchResult, error) {
	if !knownEvents[req.Type] {
		return DispatchResult{}, fmt.Errorf("%w: %q", ErrUnknownEvent, req.Type)
	}

	var res DispatchResult
	st, err := s.withSession(id, func(ss *session) error {
		target := ss.doc.Body()
		if req.Target != "" {
			target = ss.doc.GetElementByID(req.Target)
			if target == nil {
				return fmt.Errorf("%w: %s", ErrElementNotFound, req.Target)
			}
		}
		ev := &dom.Event{
			Type:           req.Type,
			ClientX:        req.ClientX,
			ClientY:        req.ClientY,
			Touches:        req.Touches,
			ChangedTouches: req.ChangedTouches,
		}
		res.DefaultPrevented = !ss.doc.Dispatch(target, ev)
		s.logger.Debug(ctx, "event dispatched",
			logger.String("session_id", ss.id),
			logger.String("type", req.Type),
			logger.String("target", req.Target),
			logger.Bool("prevented", res.DefaultPrevented),
		)
		return nil
	})
	res.State = st
	return res, err
}
