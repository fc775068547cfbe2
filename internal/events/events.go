package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypePostPublished   = "post.published"
	TypePostFailed      = "post.failed"
	TypeCommentReceived = "comment.received"
)

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type PostPublished struct {
	AccountURN  string    `json:"account_urn"`
	PostURN     string    `json:"post_urn"`
	PostURL     string    `json:"post_url"`
	PublishedAt time.Time `json:"published_at"`
}

type PostFailed struct {
	AccountURN string `json:"account_urn"`
	PostURN    string `json:"post_urn"`
	Reason     string `json:"reason"`
}

type CommentReceived struct {
	PostURN    string `json:"post_urn"`
	CommentURN string `json:"comment_urn"`
	AuthorURN  string `json:"author_urn"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

// ErrUnknownEvent wraps event types this pipeline does not handle.
type ErrUnknownEvent struct {
	Event string
}

func (e *ErrUnknownEvent) Error() string {
	return fmt.Sprintf("unknown event type %q", e.Event)
}

// Decode parses a verified body into one of the typed event variants, so
// downstream handlers never see untyped maps.
func Decode(body []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed event envelope: %w", err)
	}

	switch env.Event {
	case TypePostPublished:
		var evt PostPublished
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		return &evt, nil
	case TypePostFailed:
		var evt PostFailed
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		return &evt, nil
	case TypeCommentReceived:
		var evt CommentReceived
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		return &evt, nil
	default:
		return nil, &ErrUnknownEvent{Event: env.Event}
	}
}
