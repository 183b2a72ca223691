package models

import "time"

// EventMetadata carries the type-specific payload of an ingest event. Only the
// fields relevant to the event's type are populated.
type EventMetadata struct {
	EntityType     string `json:"entity_type,omitempty"` // digital_content, album, content_list
	EntityID       uint   `json:"entity_id,omitempty"`
	EntityOwnerID  uint   `json:"entity_owner_id,omitempty"`
	FolloweeUserID uint   `json:"followee_user_id,omitempty"`
	FollowerUserID uint   `json:"follower_user_id,omitempty"`

	// Remix events
	RemixParentID      uint `json:"remix_parent_id,omitempty"`
	RemixParentOwnerID uint `json:"remix_parent_owner_id,omitempty"`

	// Collection creation: ids of previously uploaded items bundled in
	CollectionItemIDs []uint `json:"collection_item_ids,omitempty"`

	// Add-to-collection
	CollectionID      uint `json:"collection_id,omitempty"`
	CollectionOwnerID uint `json:"collection_owner_id,omitempty"`
	ItemOwnerID       uint `json:"item_owner_id,omitempty"`

	// Milestones delivered as events (listen counts)
	Threshold uint `json:"threshold,omitempty"`

	// Rewards / supporter ranks / tiers
	ChallengeID string `json:"challenge_id,omitempty"`
	Rank        uint   `json:"rank,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
}

// IngestEvent is one raw chain/discovery-layer activity event. Events arrive
// in ordered batches; Blocknumber/Slot are recorded verbatim as provenance.
type IngestEvent struct {
	Type        string        `json:"type" validate:"required"`
	Initiator   uint          `json:"initiator" validate:"required"`
	Metadata    EventMetadata `json:"metadata"`
	Blocknumber int64         `json:"blocknumber"`
	Slot        int64         `json:"slot"`
	Timestamp   time.Time     `json:"timestamp" validate:"required"`
}
