package notify

import (
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// Type is the canonical notification type. The classifier maps raw event
// type strings onto this closed set; anything else is dropped.
type Type string

const (
	TypeFollow Type = "Follow"

	TypeRepostDigitalContent Type = "RepostDigitalContent"
	TypeRepostAlbum          Type = "RepostAlbum"
	TypeRepostContentList    Type = "RepostContentList"

	TypeFavoriteDigitalContent Type = "FavoriteDigitalContent"
	TypeFavoriteAlbum          Type = "FavoriteAlbum"
	TypeFavoriteContentList    Type = "FavoriteContentList"

	TypeCreateDigitalContent Type = "CreateDigitalContent"
	TypeCreateAlbum          Type = "CreateAlbum"
	TypeCreateContentList    Type = "CreateContentList"

	TypeRemixCreate Type = "RemixCreate"
	TypeRemixCosign Type = "RemixCosign"

	TypeMilestoneFollow   Type = "MilestoneFollow"
	TypeMilestoneRepost   Type = "MilestoneRepost"
	TypeMilestoneFavorite Type = "MilestoneFavorite"
	TypeMilestoneListen   Type = "MilestoneListen"

	TypeTrendingDigitalContent Type = "TrendingDigitalContent"

	TypeChallengeReward  Type = "ChallengeReward"
	TypeTierChange       Type = "TierChange"
	TypeTipReceive       Type = "TipReceive"
	TypeSupporterRankUp  Type = "SupporterRankUp"
	TypeSupportingRankUp Type = "SupportingRankUp"

	TypeAddItemToContentList Type = "AddDigitalContentToContentList"
)

// ActionEntityType tags what a NotificationAction's entity id refers to.
// Trending actions use a composite "<time-window>:<genre>" tag instead.
type ActionEntityType string

const (
	ActionUser           ActionEntityType = "User"
	ActionDigitalContent ActionEntityType = "DigitalContent"
	ActionAlbum          ActionEntityType = "Album"
	ActionContentList    ActionEntityType = "ContentList"
)

// Preference keys consulted before pushing, matching the settings columns.
const (
	PrefFollowers  = "followers"
	PrefReposts    = "reposts"
	PrefFavorites  = "favorites"
	PrefRemixes    = "remixes"
	PrefMilestones = "milestonesAndAchievements"
	PrefTips       = "tips"
)

// Milestone ladder shared by all counter kinds, ascending.
var MilestoneLadder = []uint{10, 25, 50, 100, 250, 500, 1000, 5000, 10000, 20000, 50000, 100000, 1000000}

const (
	// TrendingCooldown is the minimum time between trending notifications
	// for the same entity.
	TrendingCooldown = 3 * time.Hour

	// TrendingMaxRank is the lowest rank that can produce a notification.
	TrendingMaxRank = 10

	// TrendingConsensusNodes is how many independent discovery nodes must
	// return identical rankings before any trending notification is written.
	TrendingConsensusNodes = 3

	// DebounceWindow is how long a pending create notification is held so a
	// following collection upload can swallow it.
	DebounceWindow = 3 * time.Minute

	// ListenTolerance widens exact ladder matching for listen counts, which
	// are polled in batches and rarely land exactly on a rung.
	ListenTolerance = 1.1
)

// Trending time windows and genres used to build the composite action tag.
const (
	TrendingTimeWeek = "week"
	TrendingGenreAll = "all"
)

// TimeGenreActionType builds the composite action-entity-type recorded on
// trending notification actions, e.g. "week:all".
func TimeGenreActionType(window, genre string) string {
	return window + ":" + genre
}

// DeviceTypes selects which device classes a push should target.
type DeviceTypes struct {
	Mobile  bool `json:"mobile"`
	Browser bool `json:"browser"`
}

// Any reports whether at least one device class is enabled.
func (d DeviceTypes) Any() bool { return d.Mobile || d.Browser }

// Action is one actor/contributing-entity pair attached to an intent.
type Action struct {
	EntityType ActionEntityType
	EntityID   uint
}

// Intent is a canonical notification-worthy action derived from one raw
// event. Create-type intents have no recipient yet; the pipeline fans them
// out to the uploader's subscribers.
type Intent struct {
	Type        Type
	RecipientID uint
	EntityID    uint
	Actions     []Action
	Blocknumber int64
	Slot        int64
	Timestamp   time.Time

	// Metadata is matched verbatim against Notification.Metadata for types
	// that key dedup on extra fields (add-to-collection).
	Metadata      string
	MatchMetadata bool

	// PreferenceKey gates the push for this intent; empty means always push.
	PreferenceKey string

	// Create-type bookkeeping.
	InitiatorID       uint
	CollectionItemIDs []uint

	// CollectionOwnerID is the acting owner for add-to-collection intents.
	// It also rides in Metadata, but the push message needs it directly.
	CollectionOwnerID uint
}

// stacks reports whether repeated actions merge into one open notification
// for this type. Remix creates, milestones and trending always get their own
// row.
func stacks(t Type) bool {
	switch t {
	case TypeRemixCreate,
		TypeMilestoneFollow, TypeMilestoneRepost, TypeMilestoneFavorite, TypeMilestoneListen,
		TypeTrendingDigitalContent:
		return false
	}
	return true
}

// NotificationWithActions bundles a stored notification with its actions for
// engines that need to inspect previously recorded values.
type NotificationWithActions struct {
	Notification models.Notification
	Actions      []models.NotificationAction
}
