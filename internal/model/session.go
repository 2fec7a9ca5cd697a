package model

import "time"

// Session represents one scheduled screening of a movie in a specific
// hall.  Capacity is fixed at creation from the hall's seat grid;
// BookedSeats is the only mutable counter and changes exclusively
// through order transitions inside the booking package.
//
// Invariant: 0 <= BookedSeats <= Capacity for every committed row.
//
// Fields:
//  ID          – primary key identifier.
//  MovieID     – movie being screened.
//  HallID      – hall where the screening takes place.
//  StartsAt    – when the screening begins.
//  EndsAt      – when the screening ends (after StartsAt).
//  PriceCents  – flat per-seat price in cents.
//  Capacity    – total seats, snapshotted from the hall.
//  BookedSeats – seats currently counted against capacity.
//  IsActive    – false once the session is cancelled.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Session struct {
	ID          uint64    // sessions.id
	MovieID     uint64    // sessions.movie_id
	HallID      uint64    // sessions.hall_id
	StartsAt    time.Time // sessions.starts_at
	EndsAt      time.Time // sessions.ends_at
	PriceCents  uint32    // sessions.price_cents
	Capacity    uint32    // sessions.capacity
	BookedSeats uint32    // sessions.booked_seats
	IsActive    bool      // sessions.is_active
	CreatedAt   time.Time // sessions.created_at
	UpdatedAt   time.Time // sessions.updated_at
}

// Bookable reports whether new reservations may be taken on the
// session at the given instant: it must be active and must not have
// ended.
func (s Session) Bookable(now time.Time) bool {
	return s.IsActive && now.Before(s.EndsAt)
}
