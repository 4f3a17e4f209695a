package app

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsfeed/internal/models"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
)

// executeProfile handles the authenticated actions. Anonymous access
// is rejected outright: the whole request aborts with ErrUnauthorized
// before any partial output.
func (a *App) executeProfile(res *Result, sess *session.Session, p router.Payload) error {
	if !sess.LoggedIn() {
		return ErrUnauthorized
	}
	switch p.Action {
	case router.ActionUserProfile:
		a.userProfile(res, sess)
	case router.ActionAdmin:
		a.adminPage(res, sess)
	case router.ActionNewPost:
		a.newPost(res, sess, p)
	case router.ActionEditPost:
		a.editPost(res, sess, p)
	case router.ActionDeletePost:
		a.deletePost(res, sess, p)
	}
	return nil
}

func (a *App) userProfile(res *Result, sess *session.Session) {
	u := sess.User()
	count, err := models.CountPostsByAuthor(a.store, u.ID)
	if err != nil {
		a.log.Warn("post count failed", zap.Int64("user", u.ID), zap.Error(err))
	}
	res.Fields["USER-NAME"] = u.Name
	res.Fields["USER-EMAIL"] = u.Email
	res.Fields["USER-ID"] = strconv.FormatInt(u.ID, 10)
	res.Fields["USER-POSTCOUNT"] = strconv.Itoa(count)
}

// adminPage lists the newest registrations. Moderators only.
func (a *App) adminPage(res *Result, sess *session.Session) {
	if !sess.IsAdmin() {
		res.Info = msgForbidden
		return
	}
	users, err := models.ListRecentUsers(a.store, a.cfg.Feed.UserPostsDefault)
	if err != nil {
		res.Info = msgStoreFailure
		return
	}
	res.Users = users
}

// newPost publishes an article. Empty title or content silently
// renders the blank form again.
func (a *App) newPost(res *Result, sess *session.Session, p router.Payload) {
	if p.Title == "" || p.Content == "" {
		res.Info = ""
		return
	}
	postID, err := models.CreatePost(a.store, p.Title, p.Content, time.Now().Unix(), sess.User().ID)
	if err != nil {
		res.Info = msgStoreFailure
		return
	}
	if err := a.assignTags(p.TagList, postID); err != nil {
		res.Info = msgStoreFailure
		return
	}
	res.Redirect = "/?page=newsfeed"
}

// editPost overwrites a post owned by the requester (admins may edit
// any). With empty title or content the form is pre-filled with the
// stored values instead.
func (a *App) editPost(res *Result, sess *session.Session, p router.Payload) {
	if p.PostID <= 0 {
		res.Info = msgNoPostID
		return
	}
	post, err := models.GetPost(a.store, p.PostID)
	if err != nil {
		res.Info = postLoadMessage(err)
		return
	}
	if !sess.CanManage(post.AuthorID) {
		res.Info = msgForbidden
		return
	}

	if p.Title == "" || p.Content == "" {
		tags, _ := models.TagsForPost(a.store, post.ID)
		res.Fields["POST-ID"] = strconv.FormatInt(post.ID, 10)
		res.Fields["POST-TITLE"] = post.Title
		res.Fields["POST-CONTENT"] = post.Content
		res.Fields["POST-TAGS"] = joinTagNames(tags)
		res.Info = ""
		return
	}

	if err := models.UpdatePost(a.store, post.ID, p.Title, p.Content, time.Now().Unix()); err != nil {
		res.Info = msgStoreFailure
		return
	}
	if err := a.assignTags(p.TagList, post.ID); err != nil {
		res.Info = msgStoreFailure
		return
	}
	res.Redirect = "/?page=newsfeed"
}

// deletePost removes a post after an explicit confirmation. The first
// request renders the confirmation form; only a confirmed request
// deletes.
func (a *App) deletePost(res *Result, sess *session.Session, p router.Payload) {
	if p.PostID <= 0 {
		res.Info = msgNoPostID
		return
	}
	post, err := models.GetPost(a.store, p.PostID)
	if err != nil {
		res.Info = postLoadMessage(err)
		return
	}
	if !sess.CanManage(post.AuthorID) {
		res.Info = msgForbidden
		return
	}

	if !p.Confirmed {
		res.Fields["POST-ID"] = strconv.FormatInt(post.ID, 10)
		res.Fields["POST-TITLE"] = post.Title
		return
	}

	if err := models.DeletePost(a.store, post.ID); err != nil {
		res.Info = msgStoreFailure
		return
	}
	res.Redirect = "/?page=newsfeed"
}

// assignTags rebuilds the tag associations of a post from a raw
// comma-separated tag list. Prior associations are cleared first, so
// reassigning the same list is idempotent; unseen tag names create
// tag rows lazily.
func (a *App) assignTags(tagList string, postID int64) error {
	if err := models.UntagPost(a.store, postID); err != nil {
		return err
	}
	for _, raw := range strings.Split(tagList, ",") {
		name := router.CleanTag(raw)
		if name == "" {
			continue
		}
		tagID, found, err := models.GetTagID(a.store, name)
		if err != nil {
			return err
		}
		if !found {
			tagID, err = models.CreateTag(a.store, name)
			if err != nil {
				return err
			}
		}
		if err := models.TagPost(a.store, postID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func joinTagNames(tags []models.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func postLoadMessage(err error) string {
	if errors.Is(err, models.ErrPostNotFound) {
		return models.ErrPostNotFound.Error()
	}
	return msgStoreFailure
}
