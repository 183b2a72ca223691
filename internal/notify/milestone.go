package notify

import (
	"fmt"
	"log"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// CounterKind names the cumulative counter a snapshot reports.
type CounterKind string

const (
	CounterFollowers CounterKind = "followers"
	CounterReposts   CounterKind = "reposts"
	CounterFavorites CounterKind = "favorites"
	CounterListens   CounterKind = "listens"
)

// CounterSnapshot is one observed counter value for an entity, delivered on
// the pipeline tick.
type CounterSnapshot struct {
	Kind       CounterKind
	OwnerID    uint             // user who gets the notification
	EntityID   uint             // entity reaching the milestone (the user themself for followers)
	EntityType ActionEntityType // what kind of entity crossed
	Count      uint64
}

// milestoneType maps a counter kind to its notification type.
func milestoneType(kind CounterKind) (Type, bool) {
	switch kind {
	case CounterFollowers:
		return TypeMilestoneFollow, true
	case CounterReposts:
		return TypeMilestoneRepost, true
	case CounterFavorites:
		return TypeMilestoneFavorite, true
	case CounterListens:
		return TypeMilestoneListen, true
	}
	return "", false
}

// CrossedThreshold finds the ladder rung a counter value lands on, scanning
// from the highest rung down so the largest match wins. Exact match only,
// except listen counts which also accept [rung, rung*1.1] to tolerate batched
// polling.
func CrossedThreshold(count uint64, tolerant bool) (uint, bool) {
	for i := len(MilestoneLadder) - 1; i >= 0; i-- {
		rung := MilestoneLadder[i]
		if count == uint64(rung) {
			return rung, true
		}
		if tolerant && count > uint64(rung) && float64(count) <= float64(rung)*ListenTolerance {
			return rung, true
		}
	}
	return 0, false
}

// ProcessMilestones evaluates counter snapshots against the ladder, creating
// at most one notification per crossing and retracting superseded unread
// milestones for the same entity. Must run inside the batch's Transact scope.
//
// Reprocessing the same snapshot is idempotent: the crossing notification is
// only inserted once, and only that first insert yields a push.
func ProcessMilestones(s Store, snaps []CounterSnapshot, blocknumber, slot int64, now time.Time) ([]PendingPush, error) {
	var pushes []PendingPush
	for _, snap := range snaps {
		t, ok := milestoneType(snap.Kind)
		if !ok {
			log.Printf("milestones: skipping snapshot with unknown counter kind %q", snap.Kind)
			continue
		}
		rung, ok := CrossedThreshold(snap.Count, snap.Kind == CounterListens)
		if !ok {
			continue
		}

		existing, err := s.ListWithActions(snap.OwnerID, t, snap.EntityID, false)
		if err != nil {
			return nil, fmt.Errorf("list milestones: %w", err)
		}
		if hasMilestoneAction(existing, snap.EntityType, rung) {
			continue // already recorded, silent no-op
		}

		notif := &models.Notification{
			UserID:      snap.OwnerID,
			Type:        string(t),
			EntityID:    snap.EntityID,
			Blocknumber: blocknumber,
			Slot:        slot,
			Timestamp:   now,
		}
		if err := s.Create(notif); err != nil {
			return nil, fmt.Errorf("create milestone notification: %w", err)
		}
		if _, err := s.FindOrCreateAction(&models.NotificationAction{
			NotificationID:   notif.ID,
			ActionEntityType: string(snap.EntityType),
			ActionEntityID:   rung,
			Blocknumber:      blocknumber,
			Slot:             slot,
		}); err != nil {
			return nil, fmt.Errorf("create milestone action: %w", err)
		}
		log.Printf("milestones: user %d crossed %s=%d for entity %d", snap.OwnerID, t, rung, snap.EntityID)

		if err := retractSupersededMilestones(s, snap, t, rung); err != nil {
			return nil, err
		}

		// Only the first-ever insert of a rung pushes.
		pushes = append(pushes, PendingPush{
			UserID:        snap.OwnerID,
			Type:          t,
			EntityID:      snap.EntityID,
			Value:         rung,
			PreferenceKey: PrefMilestones,
		})
	}
	return pushes, nil
}

// retractSupersededMilestones hard-deletes unread milestone notifications of
// the same (user, type, entity) whose recorded rung differs from the new one,
// so an unread user only ever sees the most recent crossing.
func retractSupersededMilestones(s Store, snap CounterSnapshot, t Type, rung uint) error {
	unread, err := s.ListWithActions(snap.OwnerID, t, snap.EntityID, true)
	if err != nil {
		return fmt.Errorf("list unread milestones: %w", err)
	}
	for _, nwa := range unread {
		stale := false
		for _, a := range nwa.Actions {
			if a.ActionEntityType == string(snap.EntityType) && a.ActionEntityID != rung {
				stale = true
				break
			}
		}
		if !stale {
			continue
		}
		log.Printf("milestones: retracting superseded milestone notification %d", nwa.Notification.ID)
		if err := s.Delete(nwa.Notification.ID); err != nil {
			return fmt.Errorf("retract milestone %d: %w", nwa.Notification.ID, err)
		}
	}
	return nil
}

func hasMilestoneAction(list []NotificationWithActions, entityType ActionEntityType, rung uint) bool {
	for _, nwa := range list {
		for _, a := range nwa.Actions {
			if a.ActionEntityType == string(entityType) && a.ActionEntityID == rung {
				return true
			}
		}
	}
	return false
}
