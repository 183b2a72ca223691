package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// Pipeline ties the classifier, aggregation engine, milestone detector,
// trending engine and debounce queue together. One inbound batch is processed
// to completion inside a single store transaction before the next is
// accepted; pushes are offered to the delivery queue only after commit.
type Pipeline struct {
	store      TxStore
	subs       SubscriptionSource
	debouncer  *Debouncer
	dispatcher *Dispatcher
	trending   []TrendingSource

	now func() time.Time
}

// NewPipeline wires a pipeline. trendingSources may be empty when trending
// evaluation is disabled.
func NewPipeline(store TxStore, subs SubscriptionSource, debouncer *Debouncer, dispatcher *Dispatcher, trendingSources []TrendingSource) *Pipeline {
	return &Pipeline{
		store:      store,
		subs:       subs,
		debouncer:  debouncer,
		dispatcher: dispatcher,
		trending:   trendingSources,
		now:        time.Now,
	}
}

// ProcessBatch classifies a batch of events and applies every resulting
// intent within one atomic transaction. On error nothing is committed and
// the caller retries the batch from its last durable checkpoint.
func (p *Pipeline) ProcessBatch(ctx context.Context, events []models.IngestEvent) error {
	if len(events) == 0 {
		return nil
	}

	var intents []Intent
	var maxBlock, maxSlot int64
	for _, ev := range events {
		intents = append(intents, Classify(ev)...)
		if ev.Blocknumber > maxBlock {
			maxBlock = ev.Blocknumber
		}
		if ev.Slot > maxSlot {
			maxSlot = ev.Slot
		}
	}

	now := p.now()
	var pushes []PendingPush
	// A batch whose events all get dropped still advances the checkpoint;
	// otherwise the indexer re-delivers it forever.
	err := p.store.Transact(func(tx Store) error {
		for _, in := range intents {
			switch {
			case isCreate(in.Type):
				if err := p.holdCreate(in, now); err != nil {
					return err
				}

			case in.Type == TypeMilestoneListen:
				snap := CounterSnapshot{
					Kind:       CounterListens,
					OwnerID:    in.RecipientID,
					EntityID:   in.EntityID,
					EntityType: ActionDigitalContent,
					Count:      uint64(firstActionID(in)),
				}
				got, err := ProcessMilestones(tx, []CounterSnapshot{snap}, in.Blocknumber, in.Slot, now)
				if err != nil {
					return err
				}
				pushes = append(pushes, got...)

			default:
				res, err := Upsert(tx, in)
				if err != nil {
					return err
				}
				if res.NotificationIsNew || res.ActionIsNew {
					pushes = append(pushes, pushFromIntent(in))
				}
			}
		}
		return tx.Checkpoint(maxBlock, maxSlot)
	})
	if err != nil {
		return fmt.Errorf("process batch: %w", err)
	}

	p.dispatcher.Dispatch(ctx, pushes)
	return nil
}

// holdCreate fans a create intent out to the uploader's subscribers and parks
// it on the debounce queue instead of writing to the store. Collection
// creates additionally cancel pending entries for the items they bundle.
func (p *Pipeline) holdCreate(in Intent, now time.Time) error {
	subscribers, err := p.subs.Subscribers(in.InitiatorID)
	if err != nil {
		return fmt.Errorf("fan out create for user %d: %w", in.InitiatorID, err)
	}
	if isCollectionCreate(in.Type) {
		p.debouncer.CancelItems(in.CollectionItemIDs)
	}
	if len(subscribers) == 0 {
		return nil
	}
	p.debouncer.Enqueue(in, subscribers, now)
	return nil
}

// Tick flushes debounced create notifications whose window has elapsed
// through the aggregation engine. Invoked on every pipeline tick; the window
// is a soft deadline bounded by the tick interval.
func (p *Pipeline) Tick(ctx context.Context) error {
	now := p.now()
	ready := p.debouncer.Flush(now)
	if len(ready) == 0 {
		return nil
	}

	var pushes []PendingPush
	err := p.store.Transact(func(tx Store) error {
		for _, e := range ready {
			in := e.Intent
			in.RecipientID = e.SubscriberID
			res, err := Upsert(tx, in)
			if err != nil {
				return err
			}
			if res.NotificationIsNew || res.ActionIsNew {
				pushes = append(pushes, pushFromIntent(in))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush debounced creates: %w", err)
	}

	p.dispatcher.Dispatch(ctx, pushes)
	return nil
}

// RunMilestones evaluates a batch of counter snapshots atomically.
func (p *Pipeline) RunMilestones(ctx context.Context, snaps []CounterSnapshot, blocknumber, slot int64) error {
	var pushes []PendingPush
	err := p.store.Transact(func(tx Store) error {
		got, err := ProcessMilestones(tx, snaps, blocknumber, slot, p.now())
		if err != nil {
			return err
		}
		pushes = got
		return nil
	})
	if err != nil {
		return fmt.Errorf("process milestones: %w", err)
	}

	p.dispatcher.Dispatch(ctx, pushes)
	return nil
}

// RunTrending polls the configured sources for a consensus ranking and
// evaluates it. A failed round only logs; the next poll is the retry.
func (p *Pipeline) RunTrending(ctx context.Context) error {
	entries, blocknumber, err := FetchTrendingConsensus(ctx, p.trending)
	if err != nil {
		log.Printf("trending: skipping round: %v", err)
		return nil
	}

	var pushes []PendingPush
	err = p.store.Transact(func(tx Store) error {
		got, err := EvaluateTrending(tx, entries, blocknumber, p.now())
		if err != nil {
			return err
		}
		pushes = got
		return nil
	})
	if err != nil {
		return fmt.Errorf("evaluate trending: %w", err)
	}

	p.dispatcher.Dispatch(ctx, pushes)
	return nil
}

// pushFromIntent derives the push payload fields from an intent that was
// accepted by the aggregation engine.
func pushFromIntent(in Intent) PendingPush {
	p := PendingPush{
		UserID:        in.RecipientID,
		Type:          in.Type,
		EntityID:      in.EntityID,
		PreferenceKey: in.PreferenceKey,
	}
	switch {
	case isCreate(in.Type):
		p.ActorID = in.InitiatorID
	case in.Type == TypeSupporterRankUp || in.Type == TypeSupportingRankUp:
		p.ActorID = in.EntityID
		p.Value = firstActionID(in)
	case in.Type == TypeAddItemToContentList:
		// The only action is the added item; the acting user is the
		// collection owner.
		p.ActorID = in.CollectionOwnerID
	default:
		for _, a := range in.Actions {
			if a.EntityType == ActionUser {
				p.ActorID = a.EntityID
				break
			}
		}
	}
	return p
}

func firstActionID(in Intent) uint {
	if len(in.Actions) == 0 {
		return 0
	}
	return in.Actions[0].EntityID
}
