package model

import "time"

// Hall represents an individual screening hall.  The seat grid is
// described by SeatRows and SeatCols; seat labels are formed from a
// row letter followed by a seat number ("A1" .. "J10").  Capacity is
// always SeatRows*SeatCols and is snapshotted onto each session at
// scheduling time.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique hall name.
//  SeatRows  – number of seating rows.
//  SeatCols  – number of seats per row.
//  IsActive  – whether the hall is active.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hall struct {
	ID        uint64    // halls.id
	Name      string    // halls.name
	SeatRows  uint32    // halls.seat_rows
	SeatCols  uint32    // halls.seat_cols
	IsActive  bool      // halls.is_active
	CreatedAt time.Time // halls.created_at
	UpdatedAt time.Time // halls.updated_at
}

// Capacity returns the number of seats in the hall's grid.
func (h Hall) Capacity() uint32 { return h.SeatRows * h.SeatCols }
