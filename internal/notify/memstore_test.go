package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
)

// memStore is an in-memory Store/TxStore used by the engine tests so they can
// exercise full read-modify-write flows without a database.
type memStore struct {
	notifications []*models.Notification
	actions       []*models.NotificationAction
	nextNotifID   uint
	nextActionID  uint

	checkpointBlock int64
	checkpointSlot  int64
}

func newMemStore() *memStore {
	return &memStore{nextNotifID: 1, nextActionID: 1}
}

func (m *memStore) Transact(fn func(Store) error) error {
	return fn(m)
}

func (m *memStore) FindOpen(userID uint, t Type, entityID uint, metaMatch string) (*models.Notification, error) {
	for _, n := range m.notifications {
		if n.UserID != userID || n.Type != string(t) || n.EntityID != entityID || n.IsViewed {
			continue
		}
		if metaMatch != "" && n.Metadata != metaMatch {
			continue
		}
		return n, nil
	}
	return nil, nil
}

func (m *memStore) Create(n *models.Notification) error {
	n.ID = m.nextNotifID
	m.nextNotifID++
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *memStore) FindOrCreateAction(a *models.NotificationAction) (bool, error) {
	for _, existing := range m.actions {
		if existing.NotificationID == a.NotificationID &&
			existing.ActionEntityType == a.ActionEntityType &&
			existing.ActionEntityID == a.ActionEntityID {
			*a = *existing
			return false, nil
		}
	}
	a.ID = m.nextActionID
	m.nextActionID++
	cp := *a
	m.actions = append(m.actions, &cp)
	return true, nil
}

func (m *memStore) UpdateTimestamp(notificationID uint, ts time.Time) error {
	for _, n := range m.notifications {
		if n.ID == notificationID {
			n.Timestamp = ts
			return nil
		}
	}
	return fmt.Errorf("notification %d not found", notificationID)
}

func (m *memStore) ListWithActions(userID uint, t Type, entityID uint, unreadOnly bool) ([]NotificationWithActions, error) {
	var out []NotificationWithActions
	for _, n := range m.notifications {
		if n.UserID != userID || n.Type != string(t) || n.EntityID != entityID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, NotificationWithActions{Notification: *n, Actions: m.actionsFor(n.ID)})
	}
	return out, nil
}

func (m *memStore) LatestWithActions(userID uint, t Type, entityID uint) (*NotificationWithActions, error) {
	var latest *models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID || n.Type != string(t) || n.EntityID != entityID {
			continue
		}
		if latest == nil || n.Timestamp.After(latest.Timestamp) {
			latest = n
		}
	}
	if latest == nil {
		return nil, nil
	}
	return &NotificationWithActions{Notification: *latest, Actions: m.actionsFor(latest.ID)}, nil
}

func (m *memStore) Delete(notificationID uint) error {
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.ID != notificationID {
			kept = append(kept, n)
		}
	}
	m.notifications = kept

	keptActions := m.actions[:0]
	for _, a := range m.actions {
		if a.NotificationID != notificationID {
			keptActions = append(keptActions, a)
		}
	}
	m.actions = keptActions
	return nil
}

func (m *memStore) DeleteCreateItemActions(itemID uint) error {
	createParents := make(map[uint]bool)
	for _, n := range m.notifications {
		if isCreate(Type(n.Type)) {
			createParents[n.ID] = true
		}
	}

	keptActions := m.actions[:0]
	for _, a := range m.actions {
		if createParents[a.NotificationID] &&
			a.ActionEntityType == string(ActionDigitalContent) &&
			a.ActionEntityID == itemID {
			continue
		}
		keptActions = append(keptActions, a)
	}
	m.actions = keptActions

	remaining := make(map[uint]int)
	for _, a := range m.actions {
		remaining[a.NotificationID]++
	}
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if createParents[n.ID] && remaining[n.ID] == 0 {
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return nil
}

func (m *memStore) Checkpoint(blocknumber, slot int64) error {
	if blocknumber > m.checkpointBlock {
		m.checkpointBlock = blocknumber
	}
	if slot > m.checkpointSlot {
		m.checkpointSlot = slot
	}
	return nil
}

func (m *memStore) actionsFor(notificationID uint) []models.NotificationAction {
	var out []models.NotificationAction
	for _, a := range m.actions {
		if a.NotificationID == notificationID {
			out = append(out, *a)
		}
	}
	return out
}

func (m *memStore) find(userID uint, t Type, entityID uint) []*models.Notification {
	var out []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && n.Type == string(t) && n.EntityID == entityID {
			out = append(out, n)
		}
	}
	return out
}

// memSubscriptions is a fixed subscriber fan-out map.
type memSubscriptions map[uint][]uint

func (m memSubscriptions) Subscribers(userID uint) ([]uint, error) {
	return m[userID], nil
}

// memPrefs answers preference lookups from a fixed map; unlisted keys default
// to all devices enabled.
type memPrefs struct {
	byKey map[string]DeviceTypes
	err   error
}

func (m *memPrefs) ShouldNotify(_ context.Context, _ uint, key string) (DeviceTypes, error) {
	if m.err != nil {
		return DeviceTypes{}, m.err
	}
	if m.byKey != nil {
		if d, ok := m.byKey[key]; ok {
			return d, nil
		}
	}
	return DeviceTypes{Mobile: true, Browser: true}, nil
}

// memBuffer records enqueued push payloads.
type memBuffer struct {
	records []models.PushRecord
}

func (m *memBuffer) Enqueue(_ context.Context, rec *models.PushRecord) error {
	m.records = append(m.records, *rec)
	return nil
}

// memMetadata serves display names from fixed maps.
type memMetadata struct {
	handles map[uint]string
	titles  map[uint]string
}

func (m *memMetadata) UserHandles(_ context.Context, userIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string)
	for _, id := range userIDs {
		if h, ok := m.handles[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

func (m *memMetadata) ContentTitles(_ context.Context, entityIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string)
	for _, id := range entityIDs {
		if t, ok := m.titles[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}
