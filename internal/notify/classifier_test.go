package notify

import (
	"testing"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

func TestClassifyFollow(t *testing.T) {
	t.Parallel()

	ev := models.IngestEvent{
		Type:      EventFollow,
		Initiator: 7,
		Metadata: models.EventMetadata{
			FollowerUserID: 7,
			FolloweeUserID: 42,
		},
		Blocknumber: 100,
		Timestamp:   time.Now(),
	}

	intents := Classify(ev)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	in := intents[0]
	if in.Type != TypeFollow {
		t.Errorf("expected type %q, got %q", TypeFollow, in.Type)
	}
	if in.RecipientID != 42 {
		t.Errorf("expected recipient 42, got %d", in.RecipientID)
	}
	if in.EntityID != 42 {
		t.Errorf("expected entity 42, got %d", in.EntityID)
	}
	if len(in.Actions) != 1 || in.Actions[0] != (Action{ActionUser, 7}) {
		t.Errorf("expected follower action {User 7}, got %+v", in.Actions)
	}
	if in.PreferenceKey != PrefFollowers {
		t.Errorf("expected preference key %q, got %q", PrefFollowers, in.PreferenceKey)
	}
}

func TestClassifyRepostAndFavoriteSubtypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		eventType  string
		entityType string
		want       Type
	}{
		{"repost content", EventRepost, EntityDigitalContent, TypeRepostDigitalContent},
		{"repost album", EventRepost, EntityAlbum, TypeRepostAlbum},
		{"repost content list", EventRepost, EntityContentList, TypeRepostContentList},
		{"favorite content", EventFavorite, EntityDigitalContent, TypeFavoriteDigitalContent},
		{"favorite album", EventFavorite, EntityAlbum, TypeFavoriteAlbum},
		{"favorite content list", EventFavorite, EntityContentList, TypeFavoriteContentList},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := models.IngestEvent{
				Type:      tt.eventType,
				Initiator: 7,
				Metadata: models.EventMetadata{
					EntityType:    tt.entityType,
					EntityID:      11,
					EntityOwnerID: 42,
				},
				Timestamp: time.Now(),
			}
			intents := Classify(ev)
			if len(intents) != 1 {
				t.Fatalf("expected 1 intent, got %d", len(intents))
			}
			in := intents[0]
			if in.Type != tt.want {
				t.Errorf("expected type %q, got %q", tt.want, in.Type)
			}
			if in.RecipientID != 42 || in.EntityID != 11 {
				t.Errorf("expected recipient 42 entity 11, got %d/%d", in.RecipientID, in.EntityID)
			}
			if len(in.Actions) != 1 || in.Actions[0] != (Action{ActionUser, 7}) {
				t.Errorf("expected initiator action {User 7}, got %+v", in.Actions)
			}
		})
	}
}

func TestClassifyDropsUnknown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   models.IngestEvent
	}{
		{"unknown event type", models.IngestEvent{Type: "mystery", Initiator: 1}},
		{"unknown repost entity", models.IngestEvent{
			Type: EventRepost, Initiator: 1,
			Metadata: models.EventMetadata{EntityType: "profile"},
		}},
		{"unknown favorite entity", models.IngestEvent{
			Type: EventFavorite, Initiator: 1,
			Metadata: models.EventMetadata{EntityType: "profile"},
		}},
		{"unknown create entity", models.IngestEvent{
			Type: EventCreate, Initiator: 1,
			Metadata: models.EventMetadata{EntityType: "profile"},
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.ev); got != nil {
				t.Errorf("expected event to be dropped, got %+v", got)
			}
		})
	}
}

func TestClassifyCreateDigitalContent(t *testing.T) {
	t.Parallel()

	ev := models.IngestEvent{
		Type:      EventCreate,
		Initiator: 9,
		Metadata: models.EventMetadata{
			EntityType: EntityDigitalContent,
			EntityID:   500,
		},
		Timestamp: time.Now(),
	}

	intents := Classify(ev)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	in := intents[0]
	if in.Type != TypeCreateDigitalContent {
		t.Fatalf("expected type %q, got %q", TypeCreateDigitalContent, in.Type)
	}
	// Content creates stack per uploader, so the entity is the uploader and
	// each uploaded item is an action.
	if in.EntityID != 9 {
		t.Errorf("expected entity id to be uploader 9, got %d", in.EntityID)
	}
	if len(in.Actions) != 1 || in.Actions[0] != (Action{ActionDigitalContent, 500}) {
		t.Errorf("expected item action {DigitalContent 500}, got %+v", in.Actions)
	}
}

func TestClassifyCreateContentList(t *testing.T) {
	t.Parallel()

	ev := models.IngestEvent{
		Type:      EventCreate,
		Initiator: 9,
		Metadata: models.EventMetadata{
			EntityType:        EntityContentList,
			EntityID:          77,
			EntityOwnerID:     9,
			CollectionItemIDs: []uint{500, 501},
		},
		Timestamp: time.Now(),
	}

	intents := Classify(ev)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	in := intents[0]
	if in.Type != TypeCreateContentList {
		t.Fatalf("expected type %q, got %q", TypeCreateContentList, in.Type)
	}
	if in.EntityID != 77 {
		t.Errorf("expected entity id to be the collection 77, got %d", in.EntityID)
	}
	if len(in.CollectionItemIDs) != 2 {
		t.Errorf("expected 2 bundled items, got %v", in.CollectionItemIDs)
	}
}

func TestClassifyRemixCreate(t *testing.T) {
	t.Parallel()

	ev := models.IngestEvent{
		Type:      EventRemixCreate,
		Initiator: 7,
		Metadata: models.EventMetadata{
			EntityID:           900, // the remix itself
			RemixParentID:      800,
			RemixParentOwnerID: 42,
		},
		Timestamp: time.Now(),
	}

	intents := Classify(ev)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	in := intents[0]
	if in.Type != TypeRemixCreate || in.RecipientID != 42 || in.EntityID != 900 {
		t.Errorf("unexpected intent %+v", in)
	}
	if len(in.Actions) != 2 {
		t.Fatalf("expected parent and owner actions, got %+v", in.Actions)
	}
}

func TestClassifySupporterRankUpFansOut(t *testing.T) {
	t.Parallel()

	ev := models.IngestEvent{
		Type:      EventSupporterRankUp,
		Initiator: 42, // supported user
		Metadata: models.EventMetadata{
			EntityID: 7, // supporter
			Rank:     2,
		},
		Timestamp: time.Now(),
	}

	intents := Classify(ev)
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(intents))
	}
	supported, supporting := intents[0], intents[1]
	if supported.Type != TypeSupporterRankUp || supported.RecipientID != 42 || supported.EntityID != 7 {
		t.Errorf("unexpected supported-side intent %+v", supported)
	}
	if supporting.Type != TypeSupportingRankUp || supporting.RecipientID != 7 || supporting.EntityID != 42 {
		t.Errorf("unexpected supporting-side intent %+v", supporting)
	}
	for _, in := range intents {
		if len(in.Actions) != 1 || in.Actions[0].EntityID != 2 {
			t.Errorf("expected rank action id 2, got %+v", in.Actions)
		}
	}
}

func TestClassifyAddToCollectionMatchesMetadata(t *testing.T) {
	t.Parallel()

	ev := models.IngestEvent{
		Type:      EventAddToCollection,
		Initiator: 7,
		Metadata: models.EventMetadata{
			EntityID:          500,
			ItemOwnerID:       42,
			CollectionID:      77,
			CollectionOwnerID: 7,
		},
		Timestamp: time.Now(),
	}

	intents := Classify(ev)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	in := intents[0]
	if in.Type != TypeAddItemToContentList || in.RecipientID != 42 {
		t.Errorf("unexpected intent %+v", in)
	}
	if !in.MatchMetadata {
		t.Error("expected metadata-matched dedup")
	}
	if in.Metadata == "" {
		t.Error("expected collection metadata to be recorded")
	}
}
