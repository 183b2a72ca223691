package notify

import (
	"fmt"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// UpsertResult reports what the aggregation engine did for one intent.
type UpsertResult struct {
	NotificationID    uint
	NotificationIsNew bool
	ActionIsNew       bool
}

// Upsert finds or creates the open notification for an intent and stacks its
// actions onto it. The parent's timestamp is bumped only when a genuinely new
// action lands, so "time since last activity" tracks the latest contributor.
// For collection creates it also clears standalone per-item create actions
// that the collection now covers.
//
// Must run inside the batch's Transact scope; any error aborts the batch.
func Upsert(s Store, in Intent) (UpsertResult, error) {
	var res UpsertResult

	var notif *models.Notification
	if stacks(in.Type) {
		meta := ""
		if in.MatchMetadata {
			meta = in.Metadata
		}
		existing, err := s.FindOpen(in.RecipientID, in.Type, in.EntityID, meta)
		if err != nil {
			return res, fmt.Errorf("find open notification: %w", err)
		}
		notif = existing
	}

	if notif == nil {
		notif = &models.Notification{
			UserID:      in.RecipientID,
			Type:        string(in.Type),
			EntityID:    in.EntityID,
			Blocknumber: in.Blocknumber,
			Slot:        in.Slot,
			Timestamp:   in.Timestamp,
			Metadata:    in.Metadata,
		}
		if err := s.Create(notif); err != nil {
			return res, fmt.Errorf("create notification: %w", err)
		}
		res.NotificationIsNew = true
	}
	res.NotificationID = notif.ID

	for _, a := range in.Actions {
		created, err := s.FindOrCreateAction(&models.NotificationAction{
			NotificationID:   notif.ID,
			ActionEntityType: string(a.EntityType),
			ActionEntityID:   a.EntityID,
			Blocknumber:      in.Blocknumber,
			Slot:             in.Slot,
		})
		if err != nil {
			return res, fmt.Errorf("find or create action: %w", err)
		}
		if created {
			res.ActionIsNew = true
		}
	}

	if res.ActionIsNew && !res.NotificationIsNew {
		if err := s.UpdateTimestamp(notif.ID, in.Timestamp); err != nil {
			return res, fmt.Errorf("bump notification timestamp: %w", err)
		}
	}

	// A collection that bundles already-notified uploads supersedes their
	// standalone create actions.
	if isCollectionCreate(in.Type) {
		for _, itemID := range in.CollectionItemIDs {
			if err := s.DeleteCreateItemActions(itemID); err != nil {
				return res, fmt.Errorf("dedupe collection item %d: %w", itemID, err)
			}
		}
	}

	return res, nil
}
