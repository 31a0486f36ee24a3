package forms

import (
	"context"
	"strings"

	"github.com/meur/reviewhub/internal/models"
)

// ReviewForm posts a star rating with an optional comment for one game.
type ReviewForm struct {
	machine
	deps Deps

	GameID  int
	Rating  int
	Comment string

	// AllowAnonymous lets the form submit without a session.
	AllowAnonymous bool
}

// NewReviewForm returns a review form with the default rating.
func NewReviewForm(deps Deps, gameID int) *ReviewForm {
	return &ReviewForm{deps: deps, GameID: gameID, Rating: models.DefaultRating}
}

// Enabled reports whether the form can be used in the current session.
func (f *ReviewForm) Enabled() bool {
	return f.AllowAnonymous || f.deps.API.Session().Authenticated()
}

// Submit validates the rating, posts the review and resets the fields.
// Nothing is sent when the rating is outside 1..5 or a required session is missing.
func (f *ReviewForm) Submit(ctx context.Context) (*models.Review, error) {
	if !f.Enabled() {
		return nil, f.fail(ErrLoginRequired)
	}
	in := models.ReviewCreate{GameID: f.GameID, Rating: f.Rating}
	if c := strings.TrimSpace(f.Comment); c != "" {
		in.Comment = &c
	}
	if err := in.Validate(); err != nil {
		return nil, f.fail(err)
	}
	if err := f.begin(); err != nil {
		return nil, err
	}

	review, err := f.deps.API.SubmitReview(ctx, in)
	if err != nil {
		return nil, f.end(loginRequired(err))
	}

	f.Rating = models.DefaultRating
	f.Comment = ""
	f.end(nil)
	f.deps.refresh(ctx)
	f.deps.toast(Toast{Level: LevelSuccess, Title: TitleReviewPosted})
	return review, nil
}
