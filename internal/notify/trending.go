package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// TrendingEntry is one entity on a ranked trending list. Rank 1 is best.
type TrendingEntry struct {
	EntityID uint
	Rank     uint
	OwnerID  uint
}

// TrendingSource returns a ranked top-N trending list plus the block number
// it was indexed at. Implementations own their per-call timeout.
type TrendingSource interface {
	TrendingList(ctx context.Context) ([]TrendingEntry, int64, error)
}

// ErrNoConsensus means the polled sources disagreed or one of them failed;
// the round is skipped and the next poll retries.
var ErrNoConsensus = errors.New("trending sources did not reach consensus")

// FetchTrendingConsensus polls every source in parallel and requires exact
// agreement on list content and order. Fail-closed: any source error or any
// divergence yields ErrNoConsensus rather than a partial result.
func FetchTrendingConsensus(ctx context.Context, sources []TrendingSource) ([]TrendingEntry, int64, error) {
	if len(sources) < TrendingConsensusNodes {
		return nil, 0, fmt.Errorf("%w: need %d sources, have %d", ErrNoConsensus, TrendingConsensusNodes, len(sources))
	}

	type result struct {
		entries     []TrendingEntry
		blocknumber int64
		err         error
	}
	results := make([]result, len(sources))
	done := make(chan int, len(sources))
	for i, src := range sources {
		go func(i int, src TrendingSource) {
			entries, bn, err := src.TrendingList(ctx)
			results[i] = result{entries, bn, err}
			done <- i
		}(i, src)
	}
	for range sources {
		<-done
	}

	for i, res := range results {
		if res.err != nil {
			log.Printf("trending: source %d failed: %v", i, res.err)
			return nil, 0, ErrNoConsensus
		}
	}

	agreed := results[0].entries
	for _, res := range results[1:] {
		if !sameRanking(agreed, res.entries) {
			log.Printf("trending: results diverged, %v versus %v", entityIDs(agreed), entityIDs(res.entries))
			return nil, 0, ErrNoConsensus
		}
	}
	log.Printf("trending: results converged with %v", entityIDs(agreed))
	return agreed, results[0].blocknumber, nil
}

// EvaluateTrending applies the cooldown and rank-improvement rules to an
// agreed ranking and records a notification per qualifying entry. Must run
// inside the batch's Transact scope.
//
// An entry is skipped when its last trending notification is younger than
// TrendingCooldown, or when its rank has not strictly improved since then.
func EvaluateTrending(s Store, entries []TrendingEntry, blocknumber int64, now time.Time) ([]PendingPush, error) {
	var pushes []PendingPush
	actionType := TimeGenreActionType(TrendingTimeWeek, TrendingGenreAll)

	for _, e := range entries {
		if e.Rank == 0 || e.Rank > TrendingMaxRank {
			continue
		}

		prev, err := s.LatestWithActions(e.OwnerID, TypeTrendingDigitalContent, e.EntityID)
		if err != nil {
			return nil, fmt.Errorf("look up previous trending notification: %w", err)
		}
		if prev != nil && len(prev.Actions) > 0 {
			prevRank := prev.Actions[0].ActionEntityID
			if now.Sub(prev.Notification.Timestamp) < TrendingCooldown || prevRank <= e.Rank {
				continue
			}
		}

		notif := &models.Notification{
			UserID:      e.OwnerID,
			Type:        string(TypeTrendingDigitalContent),
			EntityID:    e.EntityID,
			Blocknumber: blocknumber,
			Timestamp:   now,
		}
		if err := s.Create(notif); err != nil {
			return nil, fmt.Errorf("create trending notification: %w", err)
		}
		if _, err := s.FindOrCreateAction(&models.NotificationAction{
			NotificationID:   notif.ID,
			ActionEntityType: actionType,
			ActionEntityID:   e.Rank,
			Blocknumber:      blocknumber,
		}); err != nil {
			return nil, fmt.Errorf("create trending action: %w", err)
		}

		pushes = append(pushes, PendingPush{
			UserID:        e.OwnerID,
			Type:          TypeTrendingDigitalContent,
			EntityID:      e.EntityID,
			Value:         e.Rank,
			PreferenceKey: PrefMilestones,
		})
	}
	return pushes, nil
}

// sameRanking requires identical content and order.
func sameRanking(a, b []TrendingEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func entityIDs(entries []TrendingEntry) []uint {
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.EntityID
	}
	return ids
}
