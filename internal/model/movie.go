package model

import "time"

// Movie represents a film in the catalog.  Movies are read-mostly
// records referenced by sessions; they carry no booking state.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – movie title.
//  Description – optional synopsis.
//  DurationMin – running time in minutes.
//  Genre       – genre name (flat string, no join table needed here).
//  IsActive    – whether the movie is currently listed.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	Description *string   // movies.description (nullable)
	DurationMin uint32    // movies.duration_min
	Genre       string    // movies.genre
	IsActive    bool      // movies.is_active
	CreatedAt   time.Time // movies.created_at
	UpdatedAt   time.Time // movies.updated_at
}
