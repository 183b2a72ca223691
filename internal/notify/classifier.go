package notify

import (
	"encoding/json"
	"log"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// Raw event type strings accepted off the ingest stream.
const (
	EventFollow          = "follow"
	EventRepost          = "repost"
	EventFavorite        = "favorite"
	EventCreate          = "create"
	EventRemixCreate     = "remix_create"
	EventRemixCosign     = "remix_cosign"
	EventTip             = "tip"
	EventChallengeReward = "challenge_reward"
	EventSupporterRankUp = "supporter_rank_up"
	EventTierChange      = "tier_change"
	EventAddToCollection = "add_item_to_content_list"
	EventMilestoneListen = "milestone_listen"
)

// Entity type strings used in event metadata.
const (
	EntityDigitalContent = "digital_content"
	EntityAlbum          = "album"
	EntityContentList    = "content_list"
)

// Classify maps one raw event to zero or more canonical intents. It is pure:
// no store access, no side effects beyond a warning log for unknown types.
func Classify(ev models.IngestEvent) []Intent {
	base := Intent{
		Blocknumber: ev.Blocknumber,
		Slot:        ev.Slot,
		Timestamp:   ev.Timestamp,
		InitiatorID: ev.Initiator,
	}
	md := ev.Metadata

	switch ev.Type {
	case EventFollow:
		base.Type = TypeFollow
		base.RecipientID = md.FolloweeUserID
		base.EntityID = md.FolloweeUserID
		base.Actions = []Action{{ActionUser, md.FollowerUserID}}
		base.PreferenceKey = PrefFollowers
		return []Intent{base}

	case EventRepost:
		t, ok := repostType(md.EntityType)
		if !ok {
			log.Printf("classifier: dropping repost with unknown entity type %q", md.EntityType)
			return nil
		}
		base.Type = t
		base.RecipientID = md.EntityOwnerID
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionUser, ev.Initiator}}
		base.PreferenceKey = PrefReposts
		return []Intent{base}

	case EventFavorite:
		t, ok := favoriteType(md.EntityType)
		if !ok {
			log.Printf("classifier: dropping favorite with unknown entity type %q", md.EntityType)
			return nil
		}
		base.Type = t
		base.RecipientID = md.EntityOwnerID
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionUser, ev.Initiator}}
		base.PreferenceKey = PrefFavorites
		return []Intent{base}

	case EventCreate:
		return classifyCreate(base, md)

	case EventRemixCreate:
		base.Type = TypeRemixCreate
		base.RecipientID = md.RemixParentOwnerID
		base.EntityID = md.EntityID // the child remix
		base.Actions = []Action{
			{ActionDigitalContent, md.RemixParentID},
			{ActionUser, md.RemixParentOwnerID},
		}
		base.PreferenceKey = PrefRemixes
		return []Intent{base}

	case EventRemixCosign:
		base.Type = TypeRemixCosign
		base.RecipientID = md.EntityOwnerID
		base.EntityID = md.EntityID
		base.Actions = []Action{
			{ActionUser, ev.Initiator},
			{ActionDigitalContent, md.EntityID},
		}
		base.PreferenceKey = PrefRemixes
		return []Intent{base}

	case EventTip:
		// The initiator of a tip event is the receiving user; the sender
		// rides in entity_id.
		base.Type = TypeTipReceive
		base.RecipientID = ev.Initiator
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionUser, md.EntityID}}
		base.PreferenceKey = PrefTips
		return []Intent{base}

	case EventChallengeReward:
		base.Type = TypeChallengeReward
		base.RecipientID = ev.Initiator
		base.EntityID = ev.Initiator
		base.Actions = []Action{{ActionEntityType(md.ChallengeID), ev.Initiator}}
		return []Intent{base}

	case EventSupporterRankUp:
		// Two recipients: the supported user learns they have a new top
		// supporter, the supporter learns they became one.
		supported := base
		supported.Type = TypeSupporterRankUp
		supported.RecipientID = ev.Initiator
		supported.EntityID = md.EntityID
		supported.Actions = []Action{{ActionUser, md.Rank}}
		supported.PreferenceKey = PrefTips

		supporting := base
		supporting.Type = TypeSupportingRankUp
		supporting.RecipientID = md.EntityID
		supporting.EntityID = ev.Initiator
		supporting.Actions = []Action{{ActionUser, md.Rank}}
		supporting.PreferenceKey = PrefTips
		return []Intent{supported, supporting}

	case EventTierChange:
		base.Type = TypeTierChange
		base.RecipientID = ev.Initiator
		base.EntityID = ev.Initiator
		base.Actions = []Action{{ActionUser, ev.Initiator}}
		base.Metadata = marshalMetadata(map[string]any{"tier": md.Tier})
		return []Intent{base}

	case EventAddToCollection:
		base.Type = TypeAddItemToContentList
		base.RecipientID = md.ItemOwnerID
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionDigitalContent, md.EntityID}}
		base.Metadata = marshalMetadata(map[string]any{
			"collection_id":       md.CollectionID,
			"collection_owner_id": md.CollectionOwnerID,
		})
		base.MatchMetadata = true
		base.CollectionOwnerID = md.CollectionOwnerID
		return []Intent{base}

	case EventMilestoneListen:
		base.Type = TypeMilestoneListen
		base.RecipientID = ev.Initiator
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionDigitalContent, md.Threshold}}
		base.PreferenceKey = PrefMilestones
		return []Intent{base}

	default:
		log.Printf("classifier: dropping event with unknown type %q", ev.Type)
		return nil
	}
}

// classifyCreate maps a create event onto the three create subtypes. Content
// creates stack on the uploader id with one action per item; collection
// creates key on the collection itself.
func classifyCreate(base Intent, md models.EventMetadata) []Intent {
	switch md.EntityType {
	case EntityDigitalContent:
		base.Type = TypeCreateDigitalContent
		base.EntityID = base.InitiatorID
		base.Actions = []Action{{ActionDigitalContent, md.EntityID}}
	case EntityAlbum:
		base.Type = TypeCreateAlbum
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionUser, md.EntityOwnerID}}
		base.CollectionItemIDs = md.CollectionItemIDs
	case EntityContentList:
		base.Type = TypeCreateContentList
		base.EntityID = md.EntityID
		base.Actions = []Action{{ActionUser, md.EntityOwnerID}}
		base.CollectionItemIDs = md.CollectionItemIDs
	default:
		log.Printf("classifier: dropping create with unknown entity type %q", md.EntityType)
		return nil
	}
	return []Intent{base}
}

func repostType(entityType string) (Type, bool) {
	switch entityType {
	case EntityDigitalContent:
		return TypeRepostDigitalContent, true
	case EntityAlbum:
		return TypeRepostAlbum, true
	case EntityContentList:
		return TypeRepostContentList, true
	}
	return "", false
}

func favoriteType(entityType string) (Type, bool) {
	switch entityType {
	case EntityDigitalContent:
		return TypeFavoriteDigitalContent, true
	case EntityAlbum:
		return TypeFavoriteAlbum, true
	case EntityContentList:
		return TypeFavoriteContentList, true
	}
	return "", false
}

func marshalMetadata(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// isCreate reports whether a type is one of the create subtypes routed
// through the debounce queue.
func isCreate(t Type) bool {
	return t == TypeCreateDigitalContent || t == TypeCreateAlbum || t == TypeCreateContentList
}

// isCollectionCreate reports whether a type bundles previously uploaded items.
func isCollectionCreate(t Type) bool {
	return t == TypeCreateAlbum || t == TypeCreateContentList
}
