package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/recognizer/go/internal/animation"
	"github.com/mcdev12/recognizer/go/internal/session"
)

// ScreenEvent is what screen viewers receive over the websocket
type ScreenEvent struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of screen event
type EventType string

const (
	EventTypeSnapshot          EventType = "Snapshot"
	EventTypePaired            EventType = "Paired"
	EventTypeAnimationStarted  EventType = "AnimationStarted"
	EventTypeFrameDrawn        EventType = "FrameDrawn"
	EventTypeAnimationPaused   EventType = "AnimationPaused"
	EventTypeAnimationResumed  EventType = "AnimationResumed"
	EventTypeAnimationSkipped  EventType = "AnimationSkipped"
	EventTypeAnimationReset    EventType = "AnimationReset"
	EventTypePatternLoadFailed EventType = "PatternLoadFailed"
)

// SnapshotPayload is sent once to every new viewer
type SnapshotPayload struct {
	Pairing PairingInfo          `json:"pairing"`
	State   session.DisplayState `json:"state"`
}

// PairingInfo is what a display reveals so a controller can join
type PairingInfo struct {
	Code      string `json:"code"`
	ManageURL string `json:"manage_url"`
	Channel   string `json:"channel"`
}

var noticeEventTypes = map[string]EventType{
	session.NoticePaired:           EventTypePaired,
	string(animation.EventStarted): EventTypeAnimationStarted,
	string(animation.EventFrame):   EventTypeFrameDrawn,
	string(animation.EventPaused):  EventTypeAnimationPaused,
	string(animation.EventResumed): EventTypeAnimationResumed,
	string(animation.EventSkipped): EventTypeAnimationSkipped,
	string(animation.EventReset):   EventTypeAnimationReset,
	session.NoticeLoadFailed:       EventTypePatternLoadFailed,
}

// NewScreenEvent wraps payload in an event envelope
func NewScreenEvent(eventType EventType, payload interface{}) (*ScreenEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &ScreenEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// EventFromNotice converts a display notice. Notices viewers do not care
// about, such as ticks gated by a pause, report false.
func EventFromNotice(n session.Notice) (*ScreenEvent, bool) {
	eventType, ok := noticeEventTypes[n.Kind]
	if !ok {
		return nil, false
	}
	event, err := NewScreenEvent(eventType, n.State)
	if err != nil {
		return nil, false
	}
	return event, true
}
