package models

import (
	"errors"
	"time"
)

// Rating bounds, inclusive.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

var ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

// Review represents a single rating left on a game
type Review struct {
	ID        int       `json:"id"`
	GameID    int       `json:"game_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewCreate is the request body for posting a review
type ReviewCreate struct {
	GameID  int     `json:"game_id"`
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// ValidRating reports whether r is an acceptable star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Validate rejects out-of-range ratings.
func (r ReviewCreate) Validate() error {
	if !ValidRating(r.Rating) {
		return ErrRatingOutOfRange
	}
	return nil
}
