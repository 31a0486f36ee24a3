package forms

import (
	"context"
	"io"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/models"
)

// CoverForm uploads or deletes the cover of one game. It is only usable with
// a session.
type CoverForm struct {
	machine
	deps Deps

	GameID int
	// Progress receives upload progress as a percentage.
	Progress func(percent int)
}

// NewCoverForm returns a cover form for gameID.
func NewCoverForm(deps Deps, gameID int) *CoverForm {
	return &CoverForm{deps: deps, GameID: gameID}
}

// Enabled reports whether a session is present.
func (f *CoverForm) Enabled() bool {
	return f.deps.API.Session().Authenticated()
}

// Upload sends the file as the game's new cover.
func (f *CoverForm) Upload(ctx context.Context, filename string, r io.Reader) (*models.Game, error) {
	if !f.Enabled() {
		return nil, f.fail(ErrLoginRequired)
	}
	if r == nil || filename == "" {
		return nil, f.fail(ErrNoFile)
	}
	if err := f.begin(); err != nil {
		return nil, err
	}

	var progress apiclient.ProgressFunc
	if f.Progress != nil {
		progress = func(sent, total int64) {
			if total > 0 {
				f.Progress(int(sent * 100 / total))
			}
		}
	}
	game, err := f.deps.API.UploadCover(ctx, f.GameID, filename, r, progress)
	if err != nil {
		err = loginRequired(err)
		f.deps.toast(Toast{Level: LevelError, Title: TitleUploadFailed, Detail: Message(err)})
		return nil, f.end(err)
	}

	f.end(nil)
	f.deps.refresh(ctx)
	f.deps.toast(Toast{Level: LevelSuccess, Title: TitleCoverUpdated})
	return game, nil
}

// Delete removes the game's cover.
func (f *CoverForm) Delete(ctx context.Context) error {
	if !f.Enabled() {
		return f.fail(ErrLoginRequired)
	}
	if err := f.begin(); err != nil {
		return err
	}
	if err := f.deps.API.DeleteCover(ctx, f.GameID); err != nil {
		err = loginRequired(err)
		f.deps.toast(Toast{Level: LevelError, Title: TitleDeleteFailed, Detail: Message(err)})
		return f.end(err)
	}

	f.end(nil)
	f.deps.refresh(ctx)
	f.deps.toast(Toast{Level: LevelSuccess, Title: TitleCoverRemoved})
	return nil
}
