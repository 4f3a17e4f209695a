package app

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed/internal/models"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
)

func TestProfileRequiresAuth(t *testing.T) {
	a, st := newTestApp(t)
	for _, action := range []router.Action{
		router.ActionUserProfile, router.ActionAdmin, router.ActionNewPost,
		router.ActionEditPost, router.ActionDeletePost,
	} {
		_, err := a.Execute(session.New(st, ""), router.ModuleProfile, router.Payload{Action: action})
		assert.ErrorIs(t, err, ErrUnauthorized, string(action))
	}
}

func TestUserProfile(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")
	for i := 0; i < 2; i++ {
		_, err := a.Execute(sess, router.ModuleProfile, router.Payload{
			Action: router.ActionNewPost, Title: "t" + strconv.Itoa(i), Content: "c",
		})
		require.NoError(t, err)
	}

	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{Action: router.ActionUserProfile})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Fields["USER-NAME"])
	assert.Equal(t, "alice@example.com", res.Fields["USER-EMAIL"])
	assert.Equal(t, "1", res.Fields["USER-ID"])
	assert.Equal(t, "2", res.Fields["USER-POSTCOUNT"])
}

func TestNewPost(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")

	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C", TagList: "go, rust",
	})
	require.NoError(t, err)
	assert.Equal(t, "/?page=newsfeed", res.Redirect)

	posts, err := models.ListLatestPosts(st, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "T", posts[0].Title)
	assert.Equal(t, sess.User().ID, posts[0].AuthorID)
	require.Len(t, posts[0].Tags, 2)
}

func TestNewPostEmptyFieldsRenderForm(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")

	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "", Content: "",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Redirect)
	assert.Empty(t, res.Info, "empty submission is not an error")

	n, err := models.CountPosts(st)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAssignTagsIdempotent(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")
	_, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C", TagList: "go, rust",
	})
	require.NoError(t, err)

	require.NoError(t, a.assignTags("go, rust", 1))
	require.NoError(t, a.assignTags("go, rust", 1))

	tags, err := models.TagsForPost(st, 1)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	// tag rows are reused, not duplicated
	n, err := models.CountTags(st)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEditPost(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")
	_, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C", TagList: "go",
	})
	require.NoError(t, err)

	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionEditPost, PostID: 1, Title: "T2", Content: "C2", TagList: "rust",
	})
	require.NoError(t, err)
	assert.Equal(t, "/?page=newsfeed", res.Redirect)

	post, err := models.GetPost(st, 1)
	require.NoError(t, err)
	assert.Equal(t, "T2", post.Title)
	assert.Equal(t, "C2", post.Content)

	tags, err := models.TagsForPost(st, 1)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "rust", tags[0].Name)
}

func TestEditPostPrefill(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")
	_, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C", TagList: "go, rust",
	})
	require.NoError(t, err)

	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionEditPost, PostID: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Redirect)
	assert.Equal(t, "1", res.Fields["POST-ID"])
	assert.Equal(t, "T", res.Fields["POST-TITLE"])
	assert.Equal(t, "C", res.Fields["POST-CONTENT"])
	assert.Equal(t, "go, rust", res.Fields["POST-TAGS"])
}

func TestEditPostAuthorization(t *testing.T) {
	a, st := newTestApp(t)
	alice := loginUser(t, st, "alice")
	bob := loginUser(t, st, "bob")
	_, err := a.Execute(alice, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C",
	})
	require.NoError(t, err)

	res, err := a.Execute(bob, router.ModuleProfile, router.Payload{
		Action: router.ActionEditPost, PostID: 1, Title: "hacked", Content: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, msgForbidden, res.Info)
	assert.Empty(t, res.Redirect)

	post, err := models.GetPost(st, 1)
	require.NoError(t, err)
	assert.Equal(t, "T", post.Title, "no mutation on forbidden edit")

	// admins may edit anyone's post
	admin := promote(t, st, bob)
	res, err = a.Execute(admin, router.ModuleProfile, router.Payload{
		Action: router.ActionEditPost, PostID: 1, Title: "moderated", Content: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "/?page=newsfeed", res.Redirect)
}

func TestEditPostMissing(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")

	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionEditPost, PostID: 42, Title: "T", Content: "C",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrPostNotFound.Error(), res.Info)

	res, err = a.Execute(sess, router.ModuleProfile, router.Payload{Action: router.ActionEditPost})
	require.NoError(t, err)
	assert.Equal(t, msgNoPostID, res.Info)
}

func TestDeletePostConfirmation(t *testing.T) {
	a, st := newTestApp(t)
	sess := loginUser(t, st, "alice")
	_, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C", TagList: "go",
	})
	require.NoError(t, err)

	// first request only renders the confirmation form
	res, err := a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionDeletePost, PostID: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Redirect)
	assert.Equal(t, "1", res.Fields["POST-ID"])
	assert.Equal(t, "T", res.Fields["POST-TITLE"])
	_, err = models.GetPost(st, 1)
	require.NoError(t, err, "post survives the unconfirmed request")

	res, err = a.Execute(sess, router.ModuleProfile, router.Payload{
		Action: router.ActionDeletePost, PostID: 1, Confirmed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/?page=newsfeed", res.Redirect)

	_, err = models.GetPost(st, 1)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
	tags, err := models.TagsForPost(st, 1)
	require.NoError(t, err)
	assert.Empty(t, tags, "associations are removed with the post")
}

func TestDeletePostAuthorization(t *testing.T) {
	a, st := newTestApp(t)
	alice := loginUser(t, st, "alice")
	bob := loginUser(t, st, "bob")
	_, err := a.Execute(alice, router.ModuleProfile, router.Payload{
		Action: router.ActionNewPost, Title: "T", Content: "C",
	})
	require.NoError(t, err)

	res, err := a.Execute(bob, router.ModuleProfile, router.Payload{
		Action: router.ActionDeletePost, PostID: 1, Confirmed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, msgForbidden, res.Info)
	_, err = models.GetPost(st, 1)
	require.NoError(t, err, "post untouched")
}

func TestAdminPage(t *testing.T) {
	a, st := newTestApp(t)
	alice := loginUser(t, st, "alice")

	res, err := a.Execute(alice, router.ModuleProfile, router.Payload{Action: router.ActionAdmin})
	require.NoError(t, err)
	assert.Equal(t, msgForbidden, res.Info)
	assert.Empty(t, res.Users)

	admin := promote(t, st, alice)
	res, err = a.Execute(admin, router.ModuleProfile, router.Payload{Action: router.ActionAdmin})
	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "alice", res.Users[0].Name)
}
