package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/config"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/nav"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/seed"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
)

func newApp(t *testing.T) (*App, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	store := docstore.NewMemoryStore()
	_, err := seed.Run(ctx, store, seed.DefaultOptions())
	require.NoError(t, err)

	app := New(store, Options{Pages: config.PageSizes{MentorsFirst: 4, MentorsMore: 2, Posts: 5}})
	app.Start(ctx)
	t.Cleanup(app.Close)
	return app, ctx
}

func TestLoginRoutesByRole(t *testing.T) {
	app, ctx := newApp(t)

	got, err := app.Login(ctx, "admin1@gmail.com", "123456")
	require.NoError(t, err)
	require.Equal(t, nav.DestinationPendingApproval, got.Destination)
	require.Equal(t, repo.RoleAdmin, got.State.RoleName)

	got, err = app.Login(ctx, "mentee1@gmail.com", "123456")
	require.NoError(t, err)
	require.Equal(t, nav.DestinationHome, got.Destination)
	require.Equal(t, "mentee_1", got.State.UserID)
	require.True(t, app.Whoami().Is(repo.RoleMentee))

	got, err = app.Logout(ctx)
	require.NoError(t, err)
	require.Equal(t, nav.DestinationLogin, got.Destination)
	require.Equal(t, session.StatusSignedOut, app.Whoami().Status)

	dests := make([]nav.Destination, 0)
	for _, n := range app.History() {
		dests = append(dests, n.Destination)
	}
	require.Equal(t, []nav.Destination{
		nav.DestinationLogin,
		nav.DestinationPendingApproval,
		nav.DestinationLogin,
		nav.DestinationHome,
		nav.DestinationLogin,
	}, dests)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, ctx := newApp(t)

	_, err := app.Login(ctx, "mentee1@gmail.com", "errada")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = app.Mentors(ctx, 1, "")
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestMentorsLoadMoreAndFilter(t *testing.T) {
	app, ctx := newApp(t)
	_, err := app.Login(ctx, "mentee2@gmail.com", "123456")
	require.NoError(t, err)

	first, err := app.Mentors(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 4)
	require.True(t, first.HasMore)
	require.Equal(t, "Mentor 1", first.Items[0].Name)
	require.Equal(t, "mentor_1", first.Items[0].ID)

	all, err := app.Mentors(ctx, 5, "")
	require.NoError(t, err)
	require.Len(t, all.Items, 6)
	require.Equal(t, 6, all.Loaded)
	require.False(t, all.HasMore)

	filtered, err := app.Mentors(ctx, 2, "mentor 5")
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, 6, filtered.Loaded)

	_, err = app.PendingMentors(ctx, 1, "")
	require.ErrorIs(t, err, ErrAdminOnly)
}

func TestPendingMentorsForAdmin(t *testing.T) {
	app, ctx := newApp(t)
	_, err := app.Login(ctx, "admin2@gmail.com", "123456")
	require.NoError(t, err)

	pending, err := app.PendingMentors(ctx, 3, "")
	require.NoError(t, err)
	require.Len(t, pending.Items, 3)
	for _, m := range pending.Items {
		require.Equal(t, repo.MentorPending, m.Status)
	}
}

func TestPostsNewestFirstWithTitleFilter(t *testing.T) {
	app, ctx := newApp(t)
	_, err := app.Login(ctx, "mentor1@gmail.com", "123456")
	require.NoError(t, err)

	posts, err := app.Posts(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, posts.Items, 5)
	require.True(t, posts.HasMore)
	require.Equal(t, "post_9", posts.Items[0].ID)

	kotlin, err := app.Posts(ctx, 1, "KOTLIN")
	require.NoError(t, err)
	require.Len(t, kotlin.Items, 1)
	require.Equal(t, "post_5", kotlin.Items[0].ID)
}
