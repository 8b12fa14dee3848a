package service

import (
	"context"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// OverlapResolver keeps sibling chapters of a scenario mutually
// exclusive.  Sibling chapters share one room, so while a reservation
// holds a slot every overlapping slot of the other chapters must be
// blocked, and unblocked again once the reservation stops holding it.
type OverlapResolver struct{}

// Block marks every available sibling slot overlapping slot as blocked
// by r.  Slots already blocked by another reservation keep their owner.
func (OverlapResolver) Block(ctx context.Context, tx store.Tx, r *model.Reservation, slot *model.TimeSlot) ([]string, error) {
	siblings, err := tx.SiblingChapterIDs(ctx, r.ScenarioID, r.ChapterID)
	if err != nil {
		return nil, persistence("load sibling chapters", err)
	}
	if len(siblings) == 0 {
		return nil, nil
	}
	ids, err := tx.BlockOverlapping(ctx, siblings, slot.StartTime, slot.EndTime, r.ID)
	if err != nil {
		return nil, persistence("block overlapping slots", err)
	}
	return ids, nil
}

// Release frees every slot blocked by r.  r must already have left the
// active partitions.  ownSlot, when not nil, is r's own slot that the
// caller has just made available.
//
// A freed slot can still overlap another active reservation of a sibling
// chapter that was not recorded as its blocker; such a slot is blocked
// again for the oldest of those reservations instead of being freed.
// Release returns the ids of the slots that ended up available.
func (OverlapResolver) Release(ctx context.Context, tx store.Tx, r *model.Reservation, ownSlot *model.TimeSlot) ([]string, error) {
	slots, err := tx.ReleaseBlockedBy(ctx, r.ID)
	if err != nil {
		return nil, persistence("release blocked slots", err)
	}
	if ownSlot != nil {
		slots = append(slots, *ownSlot)
	}

	siblingsOf := make(map[string][]string)
	var freed []string
	for _, ts := range slots {
		siblings, ok := siblingsOf[ts.ChapterID]
		if !ok {
			siblings, err = tx.SiblingChapterIDs(ctx, r.ScenarioID, ts.ChapterID)
			if err != nil {
				return nil, persistence("load sibling chapters", err)
			}
			siblingsOf[ts.ChapterID] = siblings
		}
		if len(siblings) > 0 {
			holder, found, err := tx.OldestActiveOverlapping(ctx, siblings, ts.StartTime, ts.EndTime)
			if err != nil {
				return nil, persistence("find overlapping reservation", err)
			}
			if found {
				if err := tx.SetStatus(ctx, ts.ID, model.SlotBlocked, &holder); err != nil {
					return nil, persistence("hand off blocked slot", err)
				}
				continue
			}
		}
		freed = append(freed, ts.ID)
	}
	return freed, nil
}
