package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidRatingBoundaries(t *testing.T) {
	tests := []struct {
		rating int
		want   bool
	}{
		{0, false},
		{1, true},
		{3, true},
		{5, true},
		{6, false},
		{-1, false},
	}
	for _, tt := range tests {
		if got := ValidRating(tt.rating); got != tt.want {
			t.Fatalf("ValidRating(%d) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}

func TestReviewCreateValidate(t *testing.T) {
	if err := (ReviewCreate{GameID: 1, Rating: 6}).Validate(); !errors.Is(err, ErrRatingOutOfRange) {
		t.Fatalf("expected ErrRatingOutOfRange, got %v", err)
	}
	if err := (ReviewCreate{GameID: 1, Rating: 1}).Validate(); err != nil {
		t.Fatalf("expected rating 1 to be valid, got %v", err)
	}
}

func TestGameCreateValidate(t *testing.T) {
	date := "2024-02-30"
	good := "2023-10-20"
	tests := []struct {
		name string
		in   GameCreate
		want error
	}{
		{"ok", GameCreate{Title: "Zelda", Platform: "Switch"}, nil},
		{"ok with date", GameCreate{Title: "Zelda", Platform: "Switch", ReleasedOn: &good}, nil},
		{"missing title", GameCreate{Title: "  ", Platform: "Switch"}, ErrTitleRequired},
		{"missing platform", GameCreate{Title: "Zelda"}, ErrPlatformRequired},
		{"long title", GameCreate{Title: strings.Repeat("a", MaxTitleLen+1), Platform: "PC"}, ErrTitleTooLong},
		{"long platform", GameCreate{Title: "Zelda", Platform: strings.Repeat("p", MaxPlatformLen+1)}, ErrPlatformTooLong},
		{"bad date", GameCreate{Title: "Zelda", Platform: "Switch", ReleasedOn: &date}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	if err != nil || k != SortNewest {
		t.Fatalf("expected default sort, got %q (%v)", k, err)
	}
	for _, want := range SortKeys() {
		got, err := ParseSortKey(string(want))
		if err != nil {
			t.Fatalf("parse %q: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if _, err := ParseSortKey("price_desc"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		in   Credentials
		want error
	}{
		{Credentials{Email: "a@b.com", Password: "password1"}, nil},
		{Credentials{Password: "x"}, ErrEmailRequired},
		{Credentials{Email: "not-an-email", Password: "x"}, ErrEmailInvalid},
		{Credentials{Email: "a@b.com"}, ErrPasswordRequired},
	}
	for _, tt := range tests {
		if err := tt.in.Validate(); !errors.Is(err, tt.want) {
			t.Fatalf("Validate(%+v): expected %v, got %v", tt.in, tt.want, err)
		}
	}
}

func TestGameHasCover(t *testing.T) {
	empty := ""
	url := "covers/1/x.png"
	if (Game{}).HasCover() {
		t.Fatal("expected no cover")
	}
	if (Game{CoverURL: &empty}).HasCover() {
		t.Fatal("expected empty cover url to count as no cover")
	}
	if !(Game{CoverURL: &url}).HasCover() {
		t.Fatal("expected cover")
	}
}
