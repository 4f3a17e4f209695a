// Package app executes one action per request against the store and
// produces a render-ready result. It holds the three model variants:
// the feed loader, the profile/post-management model and the standard
// form model.
package app

import (
	"errors"

	"go.uber.org/zap"

	"newsfeed/internal/config"
	"newsfeed/internal/models"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
	"newsfeed/internal/store"
)

var (
	// ErrUnauthorized aborts the request: profile actions are not
	// rendered at all for anonymous visitors.
	ErrUnauthorized = errors.New("access to the requested page is denied")

	// ErrSamplingExhausted is raised when random posts are requested
	// from an empty table.
	ErrSamplingExhausted = errors.New("could not pick random posts")
)

const (
	msgForbidden     = "insufficient privileges"
	msgNoPostID      = "no post id given"
	msgStoreFailure  = "the operation could not be completed"
	msgPostsNotFound = "could not load posts"
)

// SiteStats are the totals shown in the page shell.
type SiteStats struct {
	Users int
	Posts int
	Tags  int
}

// Result is the outcome of one executed action. A non-empty Redirect
// makes the HTTP layer answer with a redirect instead of rendering.
type Result struct {
	Module   router.Module
	Action   router.Action
	Redirect string
	Info     string
	Fields   map[string]string
	Posts    []models.Post
	Users    []models.User
	Stats    SiteStats
}

type App struct {
	store *store.Store
	cfg   *config.Config
	log   *zap.Logger
}

func New(st *store.Store, cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{store: st, cfg: cfg, log: logger}
}

// Execute runs the action for a module and returns the result. Only
// ErrUnauthorized propagates as an error; recoverable failures end up
// in Result.Info for display.
func (a *App) Execute(sess *session.Session, module router.Module, p router.Payload) (*Result, error) {
	res := &Result{
		Module: module,
		Action: p.Action,
		Fields: map[string]string{},
		Stats:  a.siteStats(),
	}

	var err error
	switch module {
	case router.ModuleNewsFeed:
		err = a.executeFeed(res, sess, p)
	case router.ModuleProfile:
		err = a.executeProfile(res, sess, p)
	default:
		err = a.executeStandard(res, sess, p)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// siteStats loads the shell counters; a failing counter reads as zero.
func (a *App) siteStats() SiteStats {
	users, _ := models.CountUsers(a.store)
	posts, _ := models.CountPosts(a.store)
	tags, _ := models.CountTags(a.store)
	return SiteStats{Users: users, Posts: posts, Tags: tags}
}
