package services

import (
	"sync"
	"time"

	"busline/internal/ticketing-service/core/domain/model"
)

// HoldRegistry keeps advisory seat holds in memory. Holds expire on
// their own and never block a ticket insert; the database has the
// final word on seat exclusivity.
type HoldRegistry struct {
	mu    sync.Mutex
	ttl   time.Duration
	holds map[string]map[int]model.SeatHold
	now   func() time.Time
}

func NewHoldRegistry(ttl time.Duration) *HoldRegistry {
	return &HoldRegistry{
		ttl:   ttl,
		holds: make(map[string]map[int]model.SeatHold),
		now:   time.Now,
	}
}

// Acquire places a hold for the session. A live hold owned by another
// session wins; re-acquiring one's own hold extends it.
func (h *HoldRegistry) Acquire(tripId string, seat int, sessionId string) (model.SeatHold, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.purgeLocked(tripId)

	trip := h.holds[tripId]
	if trip == nil {
		trip = make(map[int]model.SeatHold)
		h.holds[tripId] = trip
	}

	if existing, ok := trip[seat]; ok && existing.SessionId != sessionId {
		return existing, false
	}

	hold := model.SeatHold{
		TripId:      tripId,
		SeatNumber:  seat,
		SessionId:   sessionId,
		LockedUntil: h.now().Add(h.ttl),
	}
	trip[seat] = hold
	return hold, true
}

// Release drops the hold if the session owns it.
func (h *HoldRegistry) Release(tripId string, seat int, sessionId string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	trip := h.holds[tripId]
	existing, ok := trip[seat]
	if !ok || existing.SessionId != sessionId {
		return false
	}
	delete(trip, seat)
	return true
}

// Drop removes a hold regardless of owner. Used once a seat is sold.
func (h *HoldRegistry) Drop(tripId string, seat int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.holds[tripId], seat)
}

// HeldSeats returns the live holds for a trip keyed by seat number.
func (h *HoldRegistry) HeldSeats(tripId string) map[int]model.SeatHold {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.purgeLocked(tripId)

	out := make(map[int]model.SeatHold, len(h.holds[tripId]))
	for seat, hold := range h.holds[tripId] {
		out[seat] = hold
	}
	return out
}

// Count returns the number of live holds across all trips.
func (h *HoldRegistry) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for tripId := range h.holds {
		h.purgeLocked(tripId)
		total += len(h.holds[tripId])
	}
	return total
}

func (h *HoldRegistry) purgeLocked(tripId string) {
	now := h.now()
	for seat, hold := range h.holds[tripId] {
		if !hold.LockedUntil.After(now) {
			delete(h.holds[tripId], seat)
		}
	}
	if len(h.holds[tripId]) == 0 {
		delete(h.holds, tripId)
	}
}
