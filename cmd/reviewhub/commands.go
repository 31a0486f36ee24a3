package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/cheggaaa/pb"
	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/forms"
	"github.com/meur/reviewhub/internal/listing"
	"github.com/meur/reviewhub/internal/models"
	"github.com/meur/reviewhub/internal/storage"
)

const defaultSort = models.DefaultSort

// cli runs one command against the API. Output goes to out, toasts and
// progress to errOut.
type cli struct {
	out      io.Writer
	errOut   io.Writer
	api      *apiclient.Client
	store    *storage.Store
	pageSize int
	progress bool
}

func (c *cli) deps() forms.Deps {
	return forms.Deps{API: c.api, Notify: forms.NotifierFunc(c.toast)}
}

func (c *cli) toast(t forms.Toast) {
	if t.Detail != "" {
		fmt.Fprintf(c.errOut, "[%s] %s: %s\n", t.Level, t.Title, t.Detail)
		return
	}
	fmt.Fprintf(c.errOut, "[%s] %s\n", t.Level, t.Title)
}

func (c *cli) listGames(ctx context.Context, page int, sortKey string) error {
	key, err := models.ParseSortKey(sortKey)
	if err != nil {
		return err
	}
	state, err := listing.New(c.api, c.pageSize).Goto(ctx, page, key)
	if err != nil {
		return err
	}
	if state.Empty() {
		fmt.Fprintln(c.out, "No games yet.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPLATFORM\tRELEASED\tRATING\tCOVER")
	for _, g := range state.Items {
		released := "-"
		if g.ReleasedOn != nil {
			released = *g.ReleasedOn
		}
		cover := "-"
		if g.HasCover() {
			cover = c.api.CoverURL(g.ID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%s\n", g.ID, g.Title, g.Platform, released, g.AvgRating, cover)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "page %d, %d games (%s)\n", state.Page, state.Total, state.Sort)
	return nil
}

func (c *cli) createGame(ctx context.Context, title, platform, released string) error {
	f := forms.NewGameForm(c.deps())
	f.Title, f.Platform, f.ReleasedOn = title, platform, released
	game, err := f.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d\n", game.ID)
	return nil
}

func (c *cli) listReviews(ctx context.Context, gameID int) error {
	reviews, err := c.api.ListReviews(ctx, gameID)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		fmt.Fprintln(c.out, "No reviews yet.")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRATING\tDATE\tCOMMENT")
	for _, r := range reviews {
		comment := ""
		if r.Comment != nil {
			comment = *r.Comment
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.ID, r.Rating, r.CreatedAt.Format(models.DateLayout), comment)
	}
	return w.Flush()
}

func (c *cli) postReview(ctx context.Context, gameID, rating int, comment string, anonymous bool) error {
	f := forms.NewReviewForm(c.deps(), gameID)
	f.AllowAnonymous = anonymous
	f.Rating = rating
	f.Comment = comment
	review, err := f.Submit(ctx)
	if err != nil {
		return errors.New(forms.Message(err))
	}
	fmt.Fprintf(c.out, "%d\n", review.ID)
	return nil
}

func (c *cli) uploadCover(ctx context.Context, gameID int, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cover: %w", err)
	}
	defer file.Close()

	f := forms.NewCoverForm(c.deps(), gameID)
	var bar *pb.ProgressBar
	if c.progress {
		bar = pb.New(100)
		bar.Output = c.errOut
		bar.ShowCounters = false
		bar.Start()
		f.Progress = func(percent int) { bar.Set(percent) }
	}
	game, err := f.Upload(ctx, filepath.Base(path), file)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return errors.New(forms.Message(err))
	}
	fmt.Fprintln(c.out, c.api.CoverURL(game.ID))
	return nil
}

func (c *cli) deleteCover(ctx context.Context, gameID int) error {
	if err := forms.NewCoverForm(c.deps(), gameID).Delete(ctx); err != nil {
		return errors.New(forms.Message(err))
	}
	return nil
}

func (c *cli) register(ctx context.Context, email, password string) error {
	f := forms.NewAuthForm(c.deps())
	f.Email, f.Password = email, password
	user, err := f.Register(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d %s\n", user.ID, user.Email)
	return nil
}

func (c *cli) login(ctx context.Context, email, password string) error {
	f := forms.NewAuthForm(c.deps())
	f.Email, f.Password = email, password
	_, err := f.Login(ctx)
	return err
}

func (c *cli) logout() error {
	return forms.Logout(c.deps())
}

func (c *cli) whoami(ctx context.Context) error {
	sess := c.api.Session()
	if !sess.Authenticated() {
		return apiclient.ErrNotSignedIn
	}
	user, err := c.api.Me(ctx)
	if err != nil {
		return errors.New(forms.Message(loginRequired(err)))
	}
	fmt.Fprintf(c.out, "%d %s\n", user.ID, user.Email)
	if id, err := sess.Identity(); err == nil && !id.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "token expires %s\n", id.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	if installID, err := c.store.InstallID(); err == nil {
		fmt.Fprintf(c.out, "install %s\n", installID)
	}
	return nil
}

// loginRequired maps a rejected token onto the login-required message.
func loginRequired(err error) error {
	if apiclient.IsUnauthorized(err) {
		return errors.Join(forms.ErrLoginRequired, err)
	}
	return err
}

func (c *cli) health(ctx context.Context) error {
	if err := c.api.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "ok %s\n", c.api.BackendRoot())
	return nil
}
