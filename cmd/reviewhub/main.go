package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/config"
	"github.com/meur/reviewhub/internal/session"
	"github.com/meur/reviewhub/internal/storage"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app        = kingpin.New("reviewhub", "A Game Review Hub command line client")
	apiFlag    = app.Flag("api", "API base URL").Envar("REVIEWHUB_API_BASE").String()
	stateFlag  = app.Flag("state", "State database holding the session").Envar("REVIEWHUB_STATE_DB").String()
	debug      = app.Flag("debug", "Log every API request").Bool()
	noProgress = app.Flag("no-progress", "Hide the upload progress bar").Bool()

	gamesCmd       = app.Command("games", "Browse and add games")
	gamesListCmd   = gamesCmd.Command("list", "List games").Default()
	gamesPage      = gamesListCmd.Flag("page", "Page number").Default("1").Int()
	gamesSort      = gamesListCmd.Flag("sort", "Sort key: created_at_desc, created_at_asc, title_asc, title_desc, avg_rating_desc, avg_rating_asc").Default(string(defaultSort)).String()
	gamesCreateCmd = gamesCmd.Command("create", "Add a game")
	gameTitle      = gamesCreateCmd.Flag("title", "Title").Required().String()
	gamePlatform   = gamesCreateCmd.Flag("platform", "Platform, e.g. Switch, PS5").Required().String()
	gameReleased   = gamesCreateCmd.Flag("released", "Release date, YYYY-MM-DD").String()

	reviewsCmd     = app.Command("reviews", "Read reviews")
	reviewsListCmd = reviewsCmd.Command("list", "List the reviews of a game").Default()
	reviewsGame    = reviewsListCmd.Arg("game", "Game ID").Required().Int()

	reviewCmd     = app.Command("review", "Post a review")
	reviewGame    = reviewCmd.Arg("game", "Game ID").Required().Int()
	reviewRating  = reviewCmd.Flag("rating", "Rating from 1 to 5").Short('r').Default("5").Int()
	reviewComment = reviewCmd.Flag("comment", "Optional comment").Short('m').String()
	reviewAnon    = reviewCmd.Flag("anonymous", "Post without a session if the API allows it").Envar("REVIEWHUB_ANONYMOUS_REVIEWS").Bool()

	coverCmd       = app.Command("cover", "Manage game covers")
	coverUploadCmd = coverCmd.Command("upload", "Upload a cover image")
	coverUpGame    = coverUploadCmd.Arg("game", "Game ID").Required().Int()
	coverUpFile    = coverUploadCmd.Arg("file", "Image file").Required().ExistingFile()
	coverDeleteCmd = coverCmd.Command("delete", "Delete a cover image")
	coverDelGame   = coverDeleteCmd.Arg("game", "Game ID").Required().Int()

	registerCmd   = app.Command("register", "Create an account")
	registerEmail = registerCmd.Flag("email", "Email").Required().String()
	registerPass  = registerCmd.Flag("password", "Password, 8+ characters").Envar("REVIEWHUB_PASSWORD").Required().String()

	loginCmd   = app.Command("login", "Log in and remember the session")
	loginEmail = loginCmd.Flag("email", "Email").Required().String()
	loginPass  = loginCmd.Flag("password", "Password").Envar("REVIEWHUB_PASSWORD").Required().String()

	logoutCmd = app.Command("logout", "Forget the session")
	whoamiCmd = app.Command("whoami", "Show the signed-in user")
	healthCmd = app.Command("health", "Check the backend")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.LoadCLI()
	if err != nil {
		config.Exitf("Failed to load config: %v", err)
	}
	if *apiFlag != "" {
		cfg.APIBase = *apiFlag
	}
	if *stateFlag != "" {
		cfg.StateDB = *stateFlag
	}

	store, err := storage.New(cfg.StateDB)
	if err != nil {
		config.Exitf("Failed to open state %s: %v", cfg.StateDB, err)
	}
	defer store.Close()

	sess, err := session.New(store.Slot(session.TokenKey))
	if err != nil {
		config.Exitf("Failed to load session: %v", err)
	}

	opts := []apiclient.Option{apiclient.WithTimeout(cfg.HTTPTimeout)}
	if *debug || cfg.Debug {
		opts = append(opts, apiclient.WithLogger(log.New(os.Stderr, "api: ", log.LstdFlags)))
	}

	c := &cli{
		out:      os.Stdout,
		errOut:   os.Stderr,
		api:      apiclient.New(cfg.APIBase, sess, opts...),
		store:    store,
		pageSize: cfg.PageSize,
		progress: !*noProgress,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.run(ctx, command); err != nil {
		stop()
		store.Close()
		config.Exitf("error: %v", err)
	}
}

func (c *cli) run(ctx context.Context, command string) error {
	switch command {
	case gamesListCmd.FullCommand():
		return c.listGames(ctx, *gamesPage, *gamesSort)
	case gamesCreateCmd.FullCommand():
		return c.createGame(ctx, *gameTitle, *gamePlatform, *gameReleased)
	case reviewsListCmd.FullCommand():
		return c.listReviews(ctx, *reviewsGame)
	case reviewCmd.FullCommand():
		return c.postReview(ctx, *reviewGame, *reviewRating, *reviewComment, *reviewAnon)
	case coverUploadCmd.FullCommand():
		return c.uploadCover(ctx, *coverUpGame, *coverUpFile)
	case coverDeleteCmd.FullCommand():
		return c.deleteCover(ctx, *coverDelGame)
	case registerCmd.FullCommand():
		return c.register(ctx, *registerEmail, *registerPass)
	case loginCmd.FullCommand():
		return c.login(ctx, *loginEmail, *loginPass)
	case logoutCmd.FullCommand():
		return c.logout()
	case whoamiCmd.FullCommand():
		return c.whoami(ctx)
	case healthCmd.FullCommand():
		return c.health(ctx)
	}
	return nil
}
