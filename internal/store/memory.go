package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

// Memory is an in-process Store.  A transaction works on a private copy
// of the state and swaps it in on commit; transactions are serialized by
// a single mutex, which gives the same isolation the MySQL store gets
// from row locks.  It backs the tests and the STORE_DRIVER=memory dev
// mode.
type Memory struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	scenarios     map[string]model.Scenario
	chapters      map[string]model.Chapter
	slots         map[string]model.TimeSlot
	reservations  map[string]model.Reservation
	notifications map[string]model.Notification
	staff         []string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: &memState{
		scenarios:     make(map[string]model.Scenario),
		chapters:      make(map[string]model.Chapter),
		slots:         make(map[string]model.TimeSlot),
		reservations:  make(map[string]model.Reservation),
		notifications: make(map[string]model.Notification),
	}}
}

func (s *memState) clone() *memState {
	out := &memState{
		scenarios:     make(map[string]model.Scenario, len(s.scenarios)),
		chapters:      make(map[string]model.Chapter, len(s.chapters)),
		slots:         make(map[string]model.TimeSlot, len(s.slots)),
		reservations:  make(map[string]model.Reservation, len(s.reservations)),
		notifications: make(map[string]model.Notification, len(s.notifications)),
		staff:         slices.Clone(s.staff),
	}
	for k, v := range s.scenarios {
		out.scenarios[k] = v
	}
	for k, v := range s.chapters {
		out.chapters[k] = v
	}
	for k, v := range s.slots {
		out.slots[k] = copySlot(v)
	}
	for k, v := range s.reservations {
		out.reservations[k] = v
	}
	for k, v := range s.notifications {
		out.notifications[k] = v
	}
	return out
}

func copySlot(ts model.TimeSlot) model.TimeSlot {
	if ts.BlockedBy != nil {
		b := *ts.BlockedBy
		ts.BlockedBy = &b
	}
	return ts
}

// AddScenario seeds a scenario.
func (m *Memory) AddScenario(sc model.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.scenarios[sc.ID] = sc
}

// AddChapter seeds a chapter.
func (m *Memory) AddChapter(ch model.Chapter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.chapters[ch.ID] = ch
}

// AddTimeSlot seeds a slot.  IsAvailable is derived from Status.
func (m *Memory) AddTimeSlot(ts model.TimeSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts.Status == "" {
		ts.Status = model.SlotAvailable
	}
	ts.IsAvailable = ts.Status == model.SlotAvailable
	m.state.slots[ts.ID] = copySlot(ts)
}

// AddStaff seeds a staff email address.
func (m *Memory) AddStaff(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.staff = append(m.state.staff, email)
}

// TimeSlot returns a committed slot.
func (m *Memory) TimeSlot(id string) (model.TimeSlot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.state.slots[id]
	return copySlot(ts), ok
}

// Reservation returns a committed reservation.
func (m *Memory) Reservation(id string) (model.Reservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	return r, ok
}

// WithinTx implements Store.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// ListReservations implements Store.  Newest first.
func (m *Memory) ListReservations(ctx context.Context) ([]model.ReservationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ReservationDetail, 0, len(m.state.reservations))
	for _, r := range m.state.reservations {
		out = append(out, m.state.detail(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetReservationDetail implements Store.
func (m *Memory) GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	d := m.state.detail(r)
	return &d, nil
}

func (s *memState) detail(r model.Reservation) model.ReservationDetail {
	d := model.ReservationDetail{Reservation: r}
	d.ScenarioName = s.scenarios[r.ScenarioID].Name
	d.ChapterName = s.chapters[r.ChapterID].Name
	if ts, ok := s.slots[r.TimeSlotID]; ok {
		d.SlotStart, d.SlotEnd = ts.StartTime, ts.EndTime
	}
	return d
}

// ListChapterSlots implements Store.  Slots starting in [from, to),
// ordered by start time.
func (m *Memory) ListChapterSlots(ctx context.Context, chapterID string, from, to time.Time) ([]model.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TimeSlot
	for _, ts := range m.state.slots {
		if ts.ChapterID != chapterID || ts.StartTime.Before(from) || !ts.StartTime.Before(to) {
			continue
		}
		out = append(out, copySlot(ts))
	}
	sortSlots(out)
	return out, nil
}

func sortSlots(slots []model.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
}

// CreateNotification implements Notifications.
func (m *Memory) CreateNotification(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.notifications[n.ID] = *n
	return nil
}

// ListNotifications implements Notifications.  Newest first.
func (m *Memory) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, 0, len(m.state.notifications))
	for _, n := range m.state.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkNotificationRead implements Notifications.
func (m *Memory) MarkNotificationRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.state.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = true
	m.state.notifications[id] = n
	return nil
}

// DeleteNotification implements Notifications.
func (m *Memory) DeleteNotification(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.notifications[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.notifications, id)
	return nil
}

// StaffEmails implements StaffDirectory.
func (m *Memory) StaffEmails(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.staff), nil
}

// memTx is the Tx handed to WithinTx callbacks.  The caller already
// holds Memory.mu.
type memTx struct {
	st *memState
}

func (t *memTx) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	sc, ok := t.st.scenarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sc, nil
}

func (t *memTx) GetChapter(ctx context.Context, id string) (*model.Chapter, error) {
	ch, ok := t.st.chapters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ch, nil
}

func (t *memTx) SiblingChapterIDs(ctx context.Context, scenarioID, chapterID string) ([]string, error) {
	var ids []string
	for _, ch := range t.st.chapters {
		if ch.ScenarioID == scenarioID && ch.ID != chapterID {
			ids = append(ids, ch.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *memTx) GetTimeSlot(ctx context.Context, id string) (*model.TimeSlot, error) {
	ts, ok := t.st.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	ts = copySlot(ts)
	return &ts, nil
}

func (t *memTx) ListOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time) ([]model.TimeSlot, error) {
	var out []model.TimeSlot
	for _, ts := range t.st.slots {
		if slices.Contains(chapterIDs, ts.ChapterID) && ts.Overlaps(start, end) {
			out = append(out, copySlot(ts))
		}
	}
	sortSlots(out)
	return out, nil
}

func (t *memTx) SetStatus(ctx context.Context, id string, status model.SlotStatus, blockedBy *string) error {
	ts, ok := t.st.slots[id]
	if !ok {
		return ErrNotFound
	}
	ts.Status = status
	ts.IsAvailable = status == model.SlotAvailable
	ts.BlockedBy = nil
	if blockedBy != nil {
		b := *blockedBy
		ts.BlockedBy = &b
	}
	ts.UpdatedAt = time.Now().UTC()
	t.st.slots[id] = ts
	return nil
}

func (t *memTx) CompareAndSetStatus(ctx context.Context, id string, from []model.SlotStatus, to model.SlotStatus) (bool, error) {
	ts, ok := t.st.slots[id]
	if !ok || !slices.Contains(from, ts.Status) {
		return false, nil
	}
	return true, t.SetStatus(ctx, id, to, nil)
}

func (t *memTx) BlockOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time, owner string) ([]string, error) {
	var changed []string
	for id, ts := range t.st.slots {
		if ts.Status != model.SlotAvailable || !slices.Contains(chapterIDs, ts.ChapterID) || !ts.Overlaps(start, end) {
			continue
		}
		if err := t.SetStatus(ctx, id, model.SlotBlocked, &owner); err != nil {
			return nil, err
		}
		changed = append(changed, id)
	}
	sort.Strings(changed)
	return changed, nil
}

func (t *memTx) ReleaseBlockedBy(ctx context.Context, owner string) ([]model.TimeSlot, error) {
	var released []model.TimeSlot
	for id, ts := range t.st.slots {
		if ts.Status != model.SlotBlocked || ts.BlockedBy == nil || *ts.BlockedBy != owner {
			continue
		}
		if err := t.SetStatus(ctx, id, model.SlotAvailable, nil); err != nil {
			return nil, err
		}
		released = append(released, copySlot(t.st.slots[id]))
	}
	sortSlots(released)
	return released, nil
}

func (t *memTx) DeleteTimeSlot(ctx context.Context, id string) error {
	if _, ok := t.st.slots[id]; !ok {
		return ErrNotFound
	}
	for _, r := range t.st.reservations {
		if r.TimeSlotID == id && r.Status != model.PartitionDeleted {
			return ErrSlotInUse
		}
	}
	delete(t.st.slots, id)
	return nil
}

func (t *memTx) CreateReservation(ctx context.Context, r *model.Reservation) error {
	t.st.reservations[r.ID] = *r
	return nil
}

func (t *memTx) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) MoveReservation(ctx context.Context, id string, from, to model.Partition) (bool, error) {
	r, ok := t.st.reservations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	now := time.Now().UTC()
	r.Status = to
	r.UpdatedAt = now
	if to == model.PartitionDeleted {
		r.DeletedAt = &now
	}
	t.st.reservations[id] = r
	return true, nil
}

func (t *memTx) ActiveForIdentity(ctx context.Context, email, phone string, from, to time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range t.st.reservations {
		if !r.Status.Active() || r.Email != email || r.Phone != phone {
			continue
		}
		ts, ok := t.st.slots[r.TimeSlotID]
		if !ok || ts.StartTime.Before(from) || !ts.StartTime.Before(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (t *memTx) OldestActiveOverlapping(ctx context.Context, chapterIDs []string, start, end time.Time) (string, bool, error) {
	var best *model.Reservation
	for _, r := range t.st.reservations {
		if !r.Status.Active() {
			continue
		}
		ts, ok := t.st.slots[r.TimeSlotID]
		if !ok || !slices.Contains(chapterIDs, ts.ChapterID) || !ts.Overlaps(start, end) {
			continue
		}
		if best == nil || r.CreatedAt.Before(best.CreatedAt) ||
			(r.CreatedAt.Equal(best.CreatedAt) && r.ID < best.ID) {
			rr := r
			best = &rr
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.ID, true, nil
}

var (
	_ Store          = (*Memory)(nil)
	_ Notifications  = (*Memory)(nil)
	_ StaffDirectory = (*Memory)(nil)
	_ Tx             = (*memTx)(nil)
)
