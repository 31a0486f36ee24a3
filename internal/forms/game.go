package forms

import (
	"context"
	"strings"

	"github.com/meur/reviewhub/internal/models"
)

// GameForm creates a game.
type GameForm struct {
	machine
	deps Deps

	Title      string
	Platform   string
	ReleasedOn string // YYYY-MM-DD or empty
}

// NewGameForm returns an empty create-game form.
func NewGameForm(deps Deps) *GameForm {
	return &GameForm{deps: deps}
}

func (f *GameForm) payload() models.GameCreate {
	in := models.GameCreate{
		Title:    strings.TrimSpace(f.Title),
		Platform: strings.TrimSpace(f.Platform),
	}
	if d := strings.TrimSpace(f.ReleasedOn); d != "" {
		in.ReleasedOn = &d
	}
	return in
}

// Submit creates the game and clears the fields on success.
func (f *GameForm) Submit(ctx context.Context) (*models.Game, error) {
	in := f.payload()
	if err := in.Validate(); err != nil {
		return nil, f.fail(err)
	}
	if err := f.begin(); err != nil {
		return nil, err
	}

	game, err := f.deps.API.CreateGame(ctx, in)
	if err != nil {
		f.deps.toast(Toast{Level: LevelError, Title: TitleSomethingFail, Detail: Message(err)})
		return nil, f.end(err)
	}

	f.Title, f.Platform, f.ReleasedOn = "", "", ""
	f.end(nil)
	f.deps.refresh(ctx)
	f.deps.toast(Toast{Level: LevelSuccess, Title: TitleGameAdded, Detail: game.Title})
	return game, nil
}
