package usersink_test

import (
	"context"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/goliatone/go-xplot/pkg/activity"
	"github.com/goliatone/go-xplot/pkg/activity/usersink"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()
	objectID := uuid.New().String()

	event := activity.Event{
		Verb:       activity.VerbWidgetUpdated,
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   tenantID.String(),
		ObjectType: activity.ObjectTypeWidget,
		ObjectID:   objectID,
		Channel:    activity.DefaultChannel,
		Notebook:   "analysis",
		Metadata: map[string]any{
			"property": "min",
		},
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != activity.VerbWidgetUpdated || record.ObjectType != activity.ObjectTypeWidget || record.ObjectID != objectID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != activity.DefaultChannel {
		t.Fatalf("expected channel widgets got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["notebook"] != "analysis" {
		t.Fatalf("expected notebook in data got %v", record.Data["notebook"])
	}
	if record.Data["property"] != "min" {
		t.Fatalf("expected metadata passthrough got %v", record.Data["property"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbWidgetOpened,
		ObjectType: activity.ObjectTypeWidget,
		ObjectID:   "1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbWidgetClosed}}

	for _, verb := range []string{activity.VerbWidgetOpened, activity.VerbWidgetClosed} {
		if err := hook.Notify(context.Background(), activity.Event{
			Verb:       verb,
			ObjectType: activity.ObjectTypeWidget,
			ObjectID:   "axis-1",
		}); err != nil {
			t.Fatalf("notify %s: %v", verb, err)
		}
	}
	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbWidgetClosed {
		t.Fatalf("expected only closed event forwarded, got %+v", sink.records)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for missing id")
	}
}
