package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// PendingPush is a notification that cleared the store inside a batch
// transaction and should be offered to the delivery queue after commit.
type PendingPush struct {
	UserID        uint
	Type          Type
	EntityID      uint
	ActorID       uint // acting user, when the message names one
	Value         uint // milestone rung or trending rank
	PreferenceKey string
}

// Dispatcher formats pending pushes and places them on the outbound delivery
// queue. Transport (FCM, web push) consumes the queue elsewhere.
type Dispatcher struct {
	buffer   PushBuffer
	prefs    PreferenceSource
	metadata MetadataSource
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(buffer PushBuffer, prefs PreferenceSource, metadata MetadataSource) *Dispatcher {
	return &Dispatcher{buffer: buffer, prefs: prefs, metadata: metadata}
}

// Enqueue is the raw hand-off: a formatted payload plus target device
// classes onto the outbound buffer.
func (d *Dispatcher) Enqueue(ctx context.Context, userID uint, title, message string, devices DeviceTypes) error {
	now := time.Now()
	return d.buffer.Enqueue(ctx, &models.PushRecord{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Mobile:    devices.Mobile,
		Browser:   devices.Browser,
		Status:    models.PushStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Dispatch resolves preferences and display metadata for each pending push
// and enqueues the ones at least one device class wants. Metadata fetch
// failures skip the affected push with a log line instead of blocking the
// rest of the pass.
func (d *Dispatcher) Dispatch(ctx context.Context, pushes []PendingPush) {
	for _, p := range pushes {
		devices := DeviceTypes{Mobile: true, Browser: true}
		if p.PreferenceKey != "" {
			var err error
			devices, err = d.prefs.ShouldNotify(ctx, p.UserID, p.PreferenceKey)
			if err != nil {
				log.Printf("dispatch: preference lookup failed for user %d: %v", p.UserID, err)
				continue
			}
		}
		if !devices.Any() {
			continue
		}

		title, message, err := d.format(ctx, p)
		if err != nil {
			log.Printf("dispatch: skipping push for user %d: %v", p.UserID, err)
			continue
		}
		if err := d.Enqueue(ctx, p.UserID, title, message, devices); err != nil {
			log.Printf("dispatch: enqueue failed for user %d: %v", p.UserID, err)
		}
	}
}

// format builds the title and message for one push, pulling display names
// from the metadata source as needed.
func (d *Dispatcher) format(ctx context.Context, p PendingPush) (string, string, error) {
	switch p.Type {
	case TypeFollow:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "New Follower", fmt.Sprintf("%s followed you", handle), nil

	case TypeRepostDigitalContent, TypeRepostAlbum, TypeRepostContentList:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		title, err := d.contentTitle(ctx, p.EntityID)
		if err != nil {
			return "", "", err
		}
		return "New Repost", fmt.Sprintf("%s reposted %s", handle, title), nil

	case TypeFavoriteDigitalContent, TypeFavoriteAlbum, TypeFavoriteContentList:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		title, err := d.contentTitle(ctx, p.EntityID)
		if err != nil {
			return "", "", err
		}
		return "New Favorite", fmt.Sprintf("%s favorited %s", handle, title), nil

	case TypeCreateDigitalContent, TypeCreateAlbum, TypeCreateContentList:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "New Release", fmt.Sprintf("%s released new content", handle), nil

	case TypeRemixCreate:
		title, err := d.contentTitle(ctx, p.EntityID)
		if err != nil {
			return "", "", err
		}
		return "New Remix", fmt.Sprintf("New remix of your content: %s", title), nil

	case TypeRemixCosign:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "New Co-Sign", fmt.Sprintf("%s co-signed your remix", handle), nil

	case TypeMilestoneFollow:
		return "Congratulations!", fmt.Sprintf("You have reached over %d followers", p.Value), nil

	case TypeMilestoneRepost, TypeMilestoneFavorite, TypeMilestoneListen:
		title, err := d.contentTitle(ctx, p.EntityID)
		if err != nil {
			return "", "", err
		}
		return "Congratulations!", fmt.Sprintf("%s has reached over %d %s", title, p.Value, milestoneMetric(p.Type)), nil

	case TypeTrendingDigitalContent:
		title, err := d.contentTitle(ctx, p.EntityID)
		if err != nil {
			return "", "", err
		}
		return "Trending", fmt.Sprintf("%s is #%d on trending right now", title, p.Value), nil

	case TypeTipReceive:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "You Received a Tip", fmt.Sprintf("%s sent you a tip", handle), nil

	case TypeSupporterRankUp:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "New Top Supporter", fmt.Sprintf("%s became your #%d top supporter", handle, p.Value), nil

	case TypeSupportingRankUp:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "Top Supporter", fmt.Sprintf("You're now %s's #%d top supporter", handle, p.Value), nil

	case TypeChallengeReward:
		return "You've Earned a Reward", "You've earned a challenge reward", nil

	case TypeTierChange:
		return "New Tier", "You've reached a new tier", nil

	case TypeAddItemToContentList:
		handle, err := d.handle(ctx, p.ActorID)
		if err != nil {
			return "", "", err
		}
		return "Added to Content List", fmt.Sprintf("%s added your content to their content list", handle), nil
	}
	return "", "", fmt.Errorf("no message template for type %q", p.Type)
}

func milestoneMetric(t Type) string {
	switch t {
	case TypeMilestoneRepost:
		return "reposts"
	case TypeMilestoneFavorite:
		return "favorites"
	default:
		return "listens"
	}
}

func (d *Dispatcher) handle(ctx context.Context, userID uint) (string, error) {
	handles, err := d.metadata.UserHandles(ctx, []uint{userID})
	if err != nil {
		return "", fmt.Errorf("fetch handle for user %d: %w", userID, err)
	}
	h, ok := handles[userID]
	if !ok {
		return "", fmt.Errorf("no handle for user %d", userID)
	}
	return h, nil
}

func (d *Dispatcher) contentTitle(ctx context.Context, entityID uint) (string, error) {
	titles, err := d.metadata.ContentTitles(ctx, []uint{entityID})
	if err != nil {
		return "", fmt.Errorf("fetch title for entity %d: %w", entityID, err)
	}
	t, ok := titles[entityID]
	if !ok {
		return "", fmt.Errorf("no title for entity %d", entityID)
	}
	return t, nil
}
