package models

import (
	"errors"
	"strings"
	"time"
)

// Field limits enforced by the API.
const (
	MaxTitleLen    = 255
	MaxPlatformLen = 100
)

// DateLayout is the wire format of release dates.
const DateLayout = "2006-01-02"

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrPlatformRequired = errors.New("platform is required")
	ErrTitleTooLong     = errors.New("title is too long")
	ErrPlatformTooLong  = errors.New("platform is too long")
	ErrInvalidDate      = errors.New("release date must be YYYY-MM-DD")
)

// Game represents a game as listed by the API
type Game struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Platform   string    `json:"platform"`
	ReleasedOn *string   `json:"released_on,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	AvgRating  float64   `json:"avg_rating"`
	CoverURL   *string   `json:"cover_url,omitempty"`
}

// HasCover reports whether the game has a cover image attached.
func (g Game) HasCover() bool {
	return g.CoverURL != nil && *g.CoverURL != ""
}

// GameCreate is the request body for creating a game
type GameCreate struct {
	Title      string  `json:"title"`
	Platform   string  `json:"platform"`
	ReleasedOn *string `json:"released_on"`
}

// Validate checks the fields the API would otherwise reject.
func (g GameCreate) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(g.Platform) == "" {
		return ErrPlatformRequired
	}
	if len([]rune(g.Title)) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if len([]rune(g.Platform)) > MaxPlatformLen {
		return ErrPlatformTooLong
	}
	if g.ReleasedOn != nil {
		if _, err := time.Parse(DateLayout, *g.ReleasedOn); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// GamePage is one page of the game list
type GamePage struct {
	Items []Game `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
