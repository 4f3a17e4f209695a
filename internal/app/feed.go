package app

import (
	"errors"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"newsfeed/internal/models"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
)

// sampleBudget bounds the random-pick loop so it terminates even over
// a sparse id space.
const sampleBudget = 25

func (a *App) executeFeed(res *Result, _ *session.Session, p router.Payload) error {
	var (
		posts []models.Post
		err   error
	)
	switch p.Action {
	case router.ActionRandom:
		posts, err = a.randomPosts(p.Limit)
	case router.ActionTagged:
		posts, err = a.taggedPosts(p.TagPattern)
	case router.ActionUserPost:
		posts, err = models.ListPostsByAuthor(a.store, p.UserID, a.cfg.Feed.UserPostsDefault)
	default:
		posts, err = models.ListLatestPosts(a.store, p.Limit)
	}
	if err != nil {
		if errors.Is(err, ErrSamplingExhausted) {
			res.Info = ErrSamplingExhausted.Error()
			return nil
		}
		a.log.Warn("feed load failed", zap.String("action", string(p.Action)), zap.Error(err))
		res.Info = msgPostsNotFound
		return nil
	}
	res.Posts = posts
	return nil
}

// randomPosts samples count distinct existing post ids uniformly from
// the table's id range. Ids are expected mostly dense, so a bounded
// number of retries suffices; count is capped at the row total and the
// loop stops once the whole range has been tried.
func (a *App) randomPosts(count int) ([]models.Post, error) {
	total, minID, maxID, err := models.PostIDStats(a.store)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrSamplingExhausted
	}
	if count > total {
		count = total
	}

	rangeSize := maxID - minID + 1
	tried := make(map[int64]bool)
	var picked []int64

	for budget := sampleBudget; budget > 0 && len(picked) < count; budget-- {
		if int64(len(tried)) >= rangeSize {
			break
		}
		var id int64
		for {
			id = minID + rand.Int63n(rangeSize)
			if !tried[id] {
				tried[id] = true
				break
			}
		}
		exists, err := models.PostExists(a.store, id)
		if err != nil {
			return nil, err
		}
		if exists {
			picked = append(picked, id)
		}
	}
	return models.ListPostsByIDs(a.store, picked)
}

// taggedPosts loads posts carrying any tag whose name matches one of
// the |-separated pattern alternatives, newest first.
func (a *App) taggedPosts(pattern string) ([]models.Post, error) {
	tagIDs, err := models.FindTagIDs(a.store, strings.Split(pattern, "|"))
	if err != nil {
		return nil, err
	}
	return models.ListPostsByTagIDs(a.store, tagIDs)
}
