package notify

import (
	"testing"
	"time"
)

func followIntent(follower uint, ts time.Time) Intent {
	return Intent{
		Type:          TypeFollow,
		RecipientID:   42,
		EntityID:      42,
		Actions:       []Action{{ActionUser, follower}},
		Timestamp:     ts,
		PreferenceKey: PrefFollowers,
	}
}

func TestUpsertStacksDistinctActors(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	base := time.Now()

	// Three distinct followers land on one open notification.
	for i, follower := range []uint{1, 2, 3} {
		res, err := Upsert(s, followIntent(follower, base.Add(time.Duration(i)*time.Minute)))
		if err != nil {
			t.Fatalf("upsert follower %d: %v", follower, err)
		}
		if i == 0 && !res.NotificationIsNew {
			t.Error("first follower should create the notification")
		}
		if i > 0 && res.NotificationIsNew {
			t.Errorf("follower %d should reuse the open notification", follower)
		}
		if !res.ActionIsNew {
			t.Errorf("follower %d should append a new action", follower)
		}
	}

	rows := s.find(42, TypeFollow, 42)
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	if got := len(s.actionsFor(rows[0].ID)); got != 3 {
		t.Errorf("expected 3 actions, got %d", got)
	}
	// Timestamp tracks the latest contributor.
	if want := base.Add(2 * time.Minute); !rows[0].Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, rows[0].Timestamp)
	}
}

func TestUpsertSameActorIsNoOp(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	base := time.Now()

	if _, err := Upsert(s, followIntent(1, base)); err != nil {
		t.Fatal(err)
	}
	res, err := Upsert(s, followIntent(1, base.Add(time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	if res.NotificationIsNew || res.ActionIsNew {
		t.Errorf("repeat actor should change nothing, got %+v", res)
	}

	rows := s.find(42, TypeFollow, 42)
	if len(rows) != 1 || len(s.actionsFor(rows[0].ID)) != 1 {
		t.Fatal("expected single notification with single action")
	}
	// No new action, no timestamp bump.
	if !rows[0].Timestamp.Equal(base) {
		t.Errorf("timestamp should not move on a no-op, got %v", rows[0].Timestamp)
	}
}

func TestUpsertViewedNotificationStartsFresh(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	base := time.Now()

	if _, err := Upsert(s, followIntent(1, base)); err != nil {
		t.Fatal(err)
	}
	s.notifications[0].IsViewed = true

	res, err := Upsert(s, followIntent(2, base.Add(time.Minute)))
	if err != nil {
		t.Fatal(err)
	}
	if !res.NotificationIsNew {
		t.Error("viewed notifications should not accept new actions")
	}
	if got := len(s.find(42, TypeFollow, 42)); got != 2 {
		t.Errorf("expected 2 notifications, got %d", got)
	}
}

func TestUpsertNonStackingTypeAlwaysCreates(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	in := Intent{
		Type:        TypeRemixCreate,
		RecipientID: 42,
		EntityID:    900,
		Actions:     []Action{{ActionDigitalContent, 800}, {ActionUser, 42}},
		Timestamp:   time.Now(),
	}

	for i := 0; i < 2; i++ {
		res, err := Upsert(s, in)
		if err != nil {
			t.Fatal(err)
		}
		if !res.NotificationIsNew {
			t.Errorf("remix create %d should always get its own row", i)
		}
	}
	if got := len(s.find(42, TypeRemixCreate, 900)); got != 2 {
		t.Errorf("expected 2 notifications, got %d", got)
	}
}

func TestUpsertMetadataSeparatesCollections(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	mk := func(meta string) Intent {
		return Intent{
			Type:          TypeAddItemToContentList,
			RecipientID:   42,
			EntityID:      500,
			Actions:       []Action{{ActionDigitalContent, 500}},
			Timestamp:     time.Now(),
			Metadata:      meta,
			MatchMetadata: true,
		}
	}

	if _, err := Upsert(s, mk(`{"collection_id":1}`)); err != nil {
		t.Fatal(err)
	}
	res, err := Upsert(s, mk(`{"collection_id":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.NotificationIsNew {
		t.Error("adds to different collections should not share a notification")
	}

	res, err = Upsert(s, mk(`{"collection_id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.NotificationIsNew || res.ActionIsNew {
		t.Errorf("repeat add to the same collection should be a no-op, got %+v", res)
	}
}

func TestUpsertCollectionCreateSwallowsItemActions(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	now := time.Now()

	// Subscriber already has a create notification for two standalone items.
	itemCreate := Intent{
		Type:        TypeCreateDigitalContent,
		RecipientID: 7,
		EntityID:    9, // uploader
		Actions:     []Action{{ActionDigitalContent, 500}, {ActionDigitalContent, 501}},
		Timestamp:   now,
		InitiatorID: 9,
	}
	if _, err := Upsert(s, itemCreate); err != nil {
		t.Fatal(err)
	}

	// An album bundling item 500 arrives.
	albumCreate := Intent{
		Type:              TypeCreateAlbum,
		RecipientID:       7,
		EntityID:          77,
		Actions:           []Action{{ActionUser, 9}},
		Timestamp:         now.Add(time.Minute),
		InitiatorID:       9,
		CollectionItemIDs: []uint{500},
	}
	if _, err := Upsert(s, albumCreate); err != nil {
		t.Fatal(err)
	}

	rows := s.find(7, TypeCreateDigitalContent, 9)
	if len(rows) != 1 {
		t.Fatalf("expected the item-create notification to survive, got %d rows", len(rows))
	}
	actions := s.actionsFor(rows[0].ID)
	if len(actions) != 1 || actions[0].ActionEntityID != 501 {
		t.Errorf("expected only item 501 to remain, got %+v", actions)
	}

	// Bundling the last remaining item removes the empty parent too.
	albumCreate.CollectionItemIDs = []uint{501}
	albumCreate.EntityID = 78
	if _, err := Upsert(s, albumCreate); err != nil {
		t.Fatal(err)
	}
	if rows := s.find(7, TypeCreateDigitalContent, 9); len(rows) != 0 {
		t.Errorf("expected action-less create notification to be removed, got %d rows", len(rows))
	}
}
