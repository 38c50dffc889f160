// Package usersink forwards widget activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/goliatone/go-xplot/pkg/activity"
	"github.com/google/uuid"
)

// Hook adapts widget activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs restricts forwarding to the listed verbs. Empty forwards all.
	Verbs []string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}
	if !h.accepts(normalized.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := cloneMap(normalized.Metadata)
	put := func(key string, value any) {
		if data == nil {
			data = map[string]any{}
		}
		data[key] = value
	}
	if normalized.Notebook != "" {
		put("notebook", normalized.Notebook)
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       data,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) accepts(verb string) bool {
	if len(h.Verbs) == 0 {
		return true
	}
	for _, candidate := range h.Verbs {
		if strings.EqualFold(strings.TrimSpace(candidate), verb) {
			return true
		}
	}
	return false
}

// parseUUID maps non-UUID identifiers to uuid.Nil.
func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
