// Package jobs holds background maintenance jobs driven by cron.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dinebook/restaurant-reservation/internal/model"
	q "github.com/dinebook/restaurant-reservation/internal/queue"
	"github.com/dinebook/restaurant-reservation/internal/repository"
	publisher "github.com/dinebook/restaurant-reservation/internal/service"
)

// ExpirySweeper periodically cancels stale pending bookings across all
// restaurants. It produces the same terminal state as the sweep that
// runs when a restaurant reads its pending list, so a booking expires
// the same way whether or not the venue ever opens its dashboard.
type ExpirySweeper struct {
	Bookings    *repository.BookingRepo
	Restaurants *repository.RestaurantRepo
}

func NewExpirySweeper(b *repository.BookingRepo, r *repository.RestaurantRepo) *ExpirySweeper {
	return &ExpirySweeper{Bookings: b, Restaurants: r}
}

// Start schedules the sweep on a new cron runner and returns it so the
// caller can Stop on shutdown. An invalid spec falls back to every
// five minutes.
func (s *ExpirySweeper) Start(spec string) *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc(spec, s.Run); err != nil {
		log.Printf("expiry sweep: bad cron spec %q (%v), using every 5 minutes", spec, err)
		_, _ = c.AddFunc("*/5 * * * *", s.Run)
	}
	c.Start()
	return c
}

// Run performs one sweep pass. Each stale record gets its own
// read-then-write cancel, so a confirm racing the sweep can still win
// and an already-cancelled record is left untouched.
func (s *ExpirySweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := s.Bookings.ListAllPending(ctx)
	if err != nil {
		log.Printf("expiry sweep: list pending failed: %v", err)
		return
	}

	nowAt := time.Now()
	names := map[uint64]string{}
	swept := 0
	for i := range pending {
		b := &pending[i]
		if !b.Expired(nowAt) {
			continue
		}
		cancelled, changed, err := s.Bookings.Cancel(ctx, b.ID, model.CancelSourceRestaurant, model.ReasonExpired)
		if err != nil {
			log.Printf("expiry sweep: cancel booking %d failed: %v", b.ID, err)
			continue
		}
		if !changed {
			continue
		}
		swept++

		name, ok := names[cancelled.RestaurantID]
		if !ok {
			if rest, rerr := s.Restaurants.GetByID(ctx, cancelled.RestaurantID); rerr == nil {
				name = rest.Name
			}
			names[cancelled.RestaurantID] = name
		}
		reason := ""
		if cancelled.CancellationReason != nil {
			reason = *cancelled.CancellationReason
		}
		ev := q.BookingCancelledEvent{
			BookingID:      cancelled.ID,
			Reference:      cancelled.Reference,
			DinerID:        cancelled.DinerID,
			RestaurantID:   cancelled.RestaurantID,
			RestaurantName: name,
			Source:         cancelled.CancellationSource,
			Reason:         reason,
			CancelledAt:    time.Now().UTC().Format(time.RFC3339),
		}
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = publisher.PublishBookingCancelled(pctx, ev)
		pcancel()
	}

	if swept > 0 {
		log.Printf("expiry sweep: cancelled %d stale pending bookings", swept)
	}
}
