package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/notify"
	"github.com/TTTT0803/VKUMentor-App/internal/policy"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
	"github.com/TTTT0803/VKUMentor-App/internal/session"
	"github.com/TTTT0803/VKUMentor-App/internal/storage"
)

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

const testPassword = "123456"

type fixture struct {
	store   *docstore.MemoryStore
	queries *repo.Queries
	rbac    *RBACService
	redis   *stubRedis
	auth    *AuthService
	mentors *MentorService
	posts   *CommunityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	for id, name := range map[string]string{"role_admin": "Admin", "role_mentor": "Mentor", "role_mentee": "Mentee"} {
		require.NoError(t, store.Set(ctx, repo.RolesCollection, id, map[string]any{"roleName": name}))
	}

	hash, err := auth.Hash(testPassword)
	require.NoError(t, err)
	queries := repo.New(store)
	for uid, role := range map[string]string{"admin1": "role_admin", "mentor1": "role_mentor", "mentee1": "role_mentee", "mentee2": "role_mentee"} {
		require.NoError(t, queries.InsertUser(ctx, repo.User{
			UID:          uid,
			Username:     strings.ToUpper(uid[:1]) + uid[1:],
			Email:        uid + "@gmail.com",
			IDRole:       role,
			PasswordHash: hash,
		}))
	}

	p, err := policy.New()
	require.NoError(t, err)
	rbac := NewRBACService(session.NewDocumentRoleLookup(store), p)
	rds := &stubRedis{}

	return &fixture{
		store:   store,
		queries: queries,
		rbac:    rbac,
		redis:   rds,
		auth: &AuthService{
			repo:          queries,
			redis:         rds,
			jwt:           auth.NewJWTManager(strings.Repeat("a", 32), time.Minute),
			rbac:          rbac,
			refreshTTL:    time.Hour,
			defaultAvatar: "https://cdn.example.com/avatar.png",
		},
		mentors: NewMentorService(queries, rbac, 9),
		posts:   NewCommunityService(queries, rbac, nil, 5),
	}
}

func (f *fixture) addMentor(t *testing.T, id, name, status string) {
	t.Helper()
	require.NoError(t, f.queries.PutMentor(context.Background(), repo.MentorInfo{
		ID: id, Name: name, Status: status, UserID: id,
		Expertise: "Go", Organization: "VKU", Achievements: "ICPC",
	}))
}

func TestLoginIssuesTokensWithResolvedRole(t *testing.T) {
	f := newFixture(t)

	result, err := f.auth.Login(context.Background(), "Admin1@Gmail.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", result.Role.RoleName)
	require.Equal(t, session.StatusResolved, result.Role.Status)
	require.Equal(t, "pending_approval", string(result.Destination))

	claims, err := f.auth.JWT().ParseAndValidate(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin1", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Len(t, f.redis.store, 1)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Login(context.Background(), "admin1@gmail.com", "errada")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Empty(t, f.redis.store)
}

func TestLoginWithDanglingRoleYieldsUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.queries.UpdateUserFields(ctx, "mentee2", map[string]any{"idRole": "role_sumido"}))

	result, err := f.auth.Login(ctx, "mentee2@gmail.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, session.UnknownRole, result.Role.RoleName)
	require.Equal(t, "home", string(result.Destination))
}

func TestSignupCreatesMentee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.auth.Signup(ctx, SignupInput{Email: " Novo.Aluno@Gmail.com ", Password: "segredo1"})
	require.NoError(t, err)
	require.Equal(t, "mentee", result.Role.RoleName)
	require.Equal(t, "novo.aluno", result.Profile.Username)
	require.Equal(t, "https://cdn.example.com/avatar.png", result.Profile.Avatar)

	_, err = f.auth.Signup(ctx, SignupInput{Email: "novo.aluno@gmail.com", Password: "segredo1"})
	require.ErrorIs(t, err, ErrEmailInUse)

	_, err = f.auth.Signup(ctx, SignupInput{Email: "x@gmail.com", Password: "123"})
	require.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Login(ctx, "mentee1@gmail.com", testPassword)
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	require.NoError(t, f.auth.Logout(ctx, second.RefreshToken))
	_, err = f.auth.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestGetMeIncludesPermissionsAndRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMentor(t, "mentee1", "Mentee1", repo.MentorPending)
	f.addMentor(t, "mentor1", "Mentor1", repo.MentorApproved)
	_, err := f.mentors.Hire(ctx, "mentee1", "mentor1")
	require.NoError(t, err)

	me, err := f.auth.GetMe(ctx, "mentee1")
	require.NoError(t, err)
	require.Equal(t, "mentee", me.Role.RoleName)
	require.Contains(t, me.Permissions, "rating.create")
	require.NotNil(t, me.Mentor)
	require.Equal(t, repo.MentorPending, me.Mentor.Status)
	require.Len(t, me.Hires, 1)
	require.Equal(t, "mentor1", me.Hires[0].MentorID)

	admin, err := f.auth.GetMe(ctx, "admin1")
	require.NoError(t, err)
	require.Empty(t, admin.Hires)
}

func TestListApprovedPaginatesWithToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		f.addMentor(t, fmt.Sprintf("m%d", i), fmt.Sprintf("Mentor %d", i), repo.MentorApproved)
	}
	for i := 0; i < 3; i++ {
		f.addMentor(t, fmt.Sprintf("p%d", i), fmt.Sprintf("Pendente %d", i), repo.MentorPending)
	}

	page, err := f.mentors.ListApproved(ctx, "mentee1", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 9)
	require.False(t, page.HasMore)
	require.Empty(t, page.NextPageToken)

	page, err = f.mentors.ListApproved(ctx, "mentee1", "", 4)
	require.NoError(t, err)
	require.True(t, page.HasMore)
	rest, err := f.mentors.ListApproved(ctx, "mentee1", page.NextPageToken, 6)
	require.NoError(t, err)
	require.Len(t, rest.Items, 5)
	require.Equal(t, "m4", rest.Items[0].ID)

	_, err = f.mentors.ListApproved(ctx, "mentee1", "@@", 6)
	require.ErrorIs(t, err, ErrInvalidPageToken)

	pending, err := f.mentors.ListPending(ctx, "admin1", "", 0)
	require.NoError(t, err)
	require.Len(t, pending.Items, 3)
	_, err = f.mentors.ListPending(ctx, "mentee1", "", 0)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRegisterApprovePromotesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mentors.Register(ctx, "mentee1", MentorInput{Expertise: "Go"})
	require.ErrorIs(t, err, ErrValidation)

	m, err := f.mentors.Register(ctx, "mentee1", MentorInput{Expertise: "Go", Organization: "VKU", Achievements: "ICPC"})
	require.NoError(t, err)
	require.Equal(t, repo.MentorPending, m.Status)
	require.Equal(t, "Mentee1", m.Name)

	_, err = f.mentors.Register(ctx, "mentee1", MentorInput{Expertise: "Go", Organization: "VKU", Achievements: "ICPC"})
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = f.mentors.Approve(ctx, "mentee2", m.ID)
	require.ErrorIs(t, err, ErrForbidden)

	approved, err := f.mentors.Approve(ctx, "admin1", m.ID)
	require.NoError(t, err)
	require.Equal(t, repo.MentorApproved, approved.Status)
	require.Equal(t, "mentor", f.rbac.Role(ctx, "mentee1").RoleName)

	_, err = f.mentors.Reject(ctx, "admin1", m.ID)
	require.ErrorIs(t, err, ErrMentorNotPending)
}

func TestRejectedRegistrationCanBeResubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := MentorInput{Expertise: "Go", Organization: "VKU", Achievements: "ICPC"}

	m, err := f.mentors.Register(ctx, "mentee2", in)
	require.NoError(t, err)
	_, err = f.mentors.Reject(ctx, "admin1", m.ID)
	require.NoError(t, err)

	again, err := f.mentors.Register(ctx, "mentee2", in)
	require.NoError(t, err)
	require.Equal(t, m.ID, again.ID)
	require.Equal(t, repo.MentorPending, again.Status)
}

func TestAdminUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMentor(t, "m1", "Mentor 1", repo.MentorPending)

	updated, err := f.mentors.Update(ctx, "admin1", "m1", MentorInput{Name: "Mentor Um", Expertise: "Rust", Organization: "VKU", Achievements: "ACM"})
	require.NoError(t, err)
	require.Equal(t, "Mentor Um", updated.Name)
	require.Equal(t, repo.MentorPending, updated.Status)

	require.ErrorIs(t, f.mentors.Delete(ctx, "mentor1", "m1"), ErrForbidden)
	require.NoError(t, f.mentors.Delete(ctx, "admin1", "m1"))
	require.ErrorIs(t, f.mentors.Delete(ctx, "admin1", "m1"), repo.ErrNotFound)
}

func TestHireThenRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMentor(t, "mentor1", "Mentor 1", repo.MentorApproved)
	f.addMentor(t, "m-pend", "Mentor P", repo.MentorPending)

	_, err := f.mentors.Rate(ctx, "mentee1", "mentor1", RatingInput{Rating: 5})
	require.ErrorIs(t, err, ErrNotHired)

	_, err = f.mentors.Hire(ctx, "mentee1", "m-pend")
	require.ErrorIs(t, err, ErrMentorUnavailable)

	_, err = f.mentors.Hire(ctx, "mentee1", "mentor1")
	require.NoError(t, err)
	_, err = f.mentors.Hire(ctx, "mentee1", "mentor1")
	require.ErrorIs(t, err, ErrAlreadyHired)

	_, err = f.mentors.Rate(ctx, "mentee1", "mentor1", RatingInput{Rating: 6})
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.mentors.Rate(ctx, "mentee1", "mentor1", RatingInput{Rating: 4, Comment: " ótimo "})
	require.NoError(t, err)
	_, err = f.mentors.Rate(ctx, "mentee1", "mentor1", RatingInput{Rating: 5})
	require.ErrorIs(t, err, ErrAlreadyRated)

	detail, err := f.mentors.Detail(ctx, "mentee1", "mentor1")
	require.NoError(t, err)
	require.True(t, detail.Hired)
	require.Len(t, detail.Ratings, 1)
	require.Equal(t, "Mentee1", detail.Ratings[0].Username)
	require.Equal(t, "ótimo", detail.Ratings[0].Comment)
	require.InDelta(t, 4.0, detail.Average, 0.001)

	_, err = f.mentors.Detail(ctx, "mentee2", "m-pend")
	require.ErrorIs(t, err, repo.ErrNotFound)
	_, err = f.mentors.Detail(ctx, "admin1", "m-pend")
	require.NoError(t, err)
}

func TestConcurrentHireRateAndRegisterCreateOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMentor(t, "mentor1", "Mentor 1", repo.MentorApproved)

	const n = 16
	run := func(op func() error) (ok int, errs []error) {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := op()
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					ok++
					return
				}
				errs = append(errs, err)
			}()
		}
		wg.Wait()
		return ok, errs
	}

	ok, errs := run(func() error { _, err := f.mentors.Hire(ctx, "mentee1", "mentor1"); return err })
	require.Equal(t, 1, ok)
	for _, err := range errs {
		require.ErrorIs(t, err, ErrAlreadyHired)
	}
	hires, err := f.queries.ListHiresByMentee(ctx, "mentee1")
	require.NoError(t, err)
	require.Len(t, hires, 1)

	ok, errs = run(func() error {
		_, err := f.mentors.Rate(ctx, "mentee1", "mentor1", RatingInput{Rating: 5})
		return err
	})
	require.Equal(t, 1, ok)
	for _, err := range errs {
		require.ErrorIs(t, err, ErrAlreadyRated)
	}
	ratings, err := f.queries.ListRatingsByMentor(ctx, "mentor1")
	require.NoError(t, err)
	require.Len(t, ratings, 1)

	ok, errs = run(func() error {
		_, err := f.mentors.Register(ctx, "mentee2", MentorInput{Expertise: "Go", Organization: "VKU", Achievements: "ICPC"})
		return err
	})
	require.Equal(t, 1, ok)
	for _, err := range errs {
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	}
}

func TestCreatePostRestrictedToMentors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.CreatePost(ctx, "mentee1", PostInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.posts.CreatePost(ctx, "admin1", PostInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.posts.CreatePost(ctx, "mentor1", PostInput{Title: " ", Content: "c"})
	require.ErrorIs(t, err, ErrValidation)

	post, err := f.posts.CreatePost(ctx, "mentor1", PostInput{Title: "Kotlin", Content: "Coroutines"})
	require.NoError(t, err)
	require.Equal(t, "mentor1", post.MentorID)
	require.NotEmpty(t, post.Date)
}

func TestListPostsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		require.NoError(t, f.store.Set(ctx, repo.CommunityDocumentsCollection, fmt.Sprintf("post_%d", i), map[string]any{
			"title": fmt.Sprintf("Post %d", i),
			"date":  fmt.Sprintf("2025-05-07T%02d:00:00Z", i),
		}))
	}

	page, err := f.posts.ListPosts(ctx, "mentee1", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	require.Equal(t, "post_7", page.Items[0].ID)
	require.True(t, page.HasMore)

	rest, err := f.posts.ListPosts(ctx, "mentee1", page.NextPageToken, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"post_2", "post_1"}, []string{rest.Items[0].ID, rest.Items[1].ID})
	require.False(t, rest.HasMore)
}

func TestListPostsResolvesAuthorNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	posts := map[string]map[string]any{
		"post_known":   {"title": "Go", "date": "2025-05-07T03:00:00Z", "mentorId": "mentor1"},
		"post_deleted": {"title": "Kotlin", "date": "2025-05-07T02:00:00Z", "mentorId": "ghost"},
		"post_unknown": {"title": "Rust", "date": "2025-05-07T01:00:00Z", "mentorId": "Unknown"},
	}
	for id, fields := range posts {
		require.NoError(t, f.store.Set(ctx, repo.CommunityDocumentsCollection, id, fields))
	}

	page, err := f.posts.ListPosts(ctx, "mentee1", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	got := map[string]string{}
	for _, p := range page.Items {
		got[p.ID] = p.Username
	}
	require.Equal(t, map[string]string{
		"post_known":   "Mentor1",
		"post_deleted": AnonymousAuthor,
		"post_unknown": AnonymousAuthor,
	}, got)
}

func TestHomeIsReadOnlyListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	home := NewHomeService(f.queries, f.rbac, 2)
	for _, name := range []string{"VKU", "DUT", "UEH"} {
		require.NoError(t, f.store.Set(ctx, repo.UniversityPartnersCollection, strings.ToLower(name), map[string]any{"name": name}))
	}

	hf, err := home.Home(ctx, "mentor1", 0)
	require.NoError(t, err)
	require.Empty(t, hf.Competitions.Items)
	require.Empty(t, hf.Sliders.Items)
	require.Equal(t, []string{"DUT", "UEH"}, []string{hf.Partners.Items[0].Name, hf.Partners.Items[1].Name})
	require.True(t, hf.Partners.HasMore)

	page, err := home.Section(ctx, "mentor1", SectionPartners, hf.Partners.NextPageToken, 0)
	require.NoError(t, err)
	rest := page.(PageResult[repo.UniversityPartner])
	require.Len(t, rest.Items, 1)
	require.Equal(t, "vku", rest.Items[0].ID)

	_, err = home.Section(ctx, "mentor1", "eventos", "", 0)
	require.ErrorIs(t, err, ErrUnknownSection)
}

type memUploader struct {
	keys []string
}

func (m *memUploader) Upload(ctx context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	m.keys = append(m.keys, input.Key)
	return &storage.UploadResult{URL: "https://cdn.example.com/" + input.Key}, nil
}

func TestUploadAvatarUpdatesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	up := &memUploader{}
	svc := NewCommunityService(f.queries, f.rbac, up, 5)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	res, err := svc.Upload(ctx, "mentee1", storage.KindAvatar, png)
	require.NoError(t, err)
	require.Len(t, up.keys, 1)

	u, err := f.queries.GetUserByID(ctx, "mentee1")
	require.NoError(t, err)
	require.Equal(t, res.URL, u.Avatar)

	_, err = svc.Upload(ctx, "mentee1", storage.KindPost, []byte("not an image"))
	require.ErrorIs(t, err, storage.ErrUnsupportedType)

	_, err = f.posts.Upload(ctx, "mentee1", storage.KindPost, png)
	require.ErrorIs(t, err, storage.ErrNotConfigured)
}

type recordingNotifier struct {
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return n.err
}

func TestRegisterNotifiesAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &recordingNotifier{}
	f.mentors.WithNotifier(rec)

	_, err := f.mentors.Register(ctx, "mentee1", MentorInput{Name: "Lan", Expertise: "Go", Organization: "VKU", Achievements: "ICPC"})
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)
	require.Contains(t, rec.sent[0].Text, "Lan (Go)")

	// falha no aviso não desfaz o cadastro
	rec.err = fmt.Errorf("webhook fora")
	_, err = f.mentors.Register(ctx, "mentee2", MentorInput{Expertise: "Go", Organization: "VKU", Achievements: "ICPC"})
	require.NoError(t, err)
	require.Len(t, rec.sent, 2)
}
