package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
)

func seedMentors(t *testing.T, approved, pending int) *docstore.MemoryStore {
	t.Helper()
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < approved; i++ {
		require.NoError(t, store.Set(ctx, "mentor_info", fmt.Sprintf("a%02d", i), map[string]any{
			"name":   fmt.Sprintf("Mentor %02d", i),
			"status": "approved",
		}))
	}
	for i := 0; i < pending; i++ {
		require.NoError(t, store.Set(ctx, "mentor_info", fmt.Sprintf("p%02d", i), map[string]any{
			"name":   fmt.Sprintf("Pendente %02d", i),
			"status": "pending",
		}))
	}
	return store
}

func approvedSpec() Spec {
	f := docstore.Eq("status", "approved")
	return Spec{Collection: "mentor_info", Filter: &f, OrderBy: "name", Direction: docstore.Ascending}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestFirstPageOfExactlyPageSizeHasNoMore(t *testing.T) {
	f := NewFetcher(seedMentors(t, 9, 3), approvedSpec())

	page, err := f.LoadFirstPage(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, page.Items, 9)
	require.False(t, page.HasMore)
	require.Nil(t, page.Cursor)
	for _, item := range page.Items {
		require.Equal(t, "approved", item.String("status"))
	}

	again, err := f.LoadMorePage(context.Background(), 6)
	require.NoError(t, err)
	require.Equal(t, ids(page.Items), ids(again.Items))
}

func TestPagesCoverCollectionWithoutDuplicates(t *testing.T) {
	cases := []struct{ total, size int }{{0, 5}, {3, 5}, {5, 5}, {10, 5}, {12, 5}, {13, 4}}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d", tc.total, tc.size), func(t *testing.T) {
			f := NewFetcher(seedMentors(t, tc.total, 2), approvedSpec())
			ctx := context.Background()

			page, err := f.LoadFirstPage(ctx, tc.size)
			require.NoError(t, err)
			loads := 1
			for page.HasMore {
				require.NotNil(t, page.Cursor)
				prev := len(page.Items)
				page, err = f.LoadMorePage(ctx, tc.size)
				require.NoError(t, err)
				require.Greater(t, len(page.Items), prev)
				loads++
			}

			require.Len(t, page.Items, tc.total)
			seen := map[string]bool{}
			for i, item := range page.Items {
				require.False(t, seen[item.ID], "duplicado %s", item.ID)
				seen[item.ID] = true
				if i > 0 {
					require.LessOrEqual(t, page.Items[i-1].String("name"), item.String("name"))
				}
			}
			want := tc.total/tc.size + 1
			if tc.total > 0 && tc.total%tc.size == 0 {
				want = tc.total / tc.size
			}
			require.Equal(t, want, loads)
		})
	}
}

func TestTiedSortValuesAreNotSkipped(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, store.Set(ctx, "community_documents", fmt.Sprintf("post%d", i), map[string]any{
			"createdAt": "2026-01-01T00:00:00Z",
		}))
	}
	f := NewFetcher(store, Spec{Collection: "community_documents", OrderBy: "createdAt", Direction: docstore.Descending})

	page, err := f.LoadFirstPage(ctx, 3)
	require.NoError(t, err)
	for page.HasMore {
		page, err = f.LoadMorePage(ctx, 3)
		require.NoError(t, err)
	}
	require.Len(t, page.Items, 7)
}

func TestTextFilterIsReversibleAndFollowsAppends(t *testing.T) {
	f := NewFetcher(seedMentors(t, 12, 0), approvedSpec())
	ctx := context.Background()

	page, err := f.LoadFirstPage(ctx, 9)
	require.NoError(t, err)
	require.True(t, page.HasMore)

	visible := f.ApplyTextFilter("mentor 1", "name")
	require.Empty(t, visible)

	visible = f.ApplyTextFilter("MENTOR 0", "name")
	require.Len(t, visible, 9)

	_, err = f.LoadMorePage(ctx, 6)
	require.NoError(t, err)
	require.Len(t, f.Visible(), 10)

	visible = f.ApplyTextFilter("mentor 1", "name")
	require.Equal(t, []string{"a10", "a11"}, ids(visible))

	visible = f.ApplyTextFilter("", "name")
	require.Equal(t, ids(f.Current().Items), ids(visible))
	require.False(t, f.Current().HasMore)
}

func TestResetClearsStateWithoutQuerying(t *testing.T) {
	q := &countingQuerier{inner: seedMentors(t, 4, 0)}
	f := NewFetcher(q, approvedSpec())

	_, err := f.LoadFirstPage(context.Background(), 2)
	require.NoError(t, err)
	calls := q.count()

	f.Reset()
	f.Reset()
	page := f.Current()
	require.Empty(t, page.Items)
	require.Nil(t, page.Cursor)
	require.False(t, page.HasMore)
	require.NoError(t, page.Err)
	require.Empty(t, f.Visible())
	require.Equal(t, calls, q.count())
}

func TestFailedLoadKeepsStateAndAllowsRetry(t *testing.T) {
	q := &countingQuerier{inner: seedMentors(t, 10, 0)}
	f := NewFetcher(q, approvedSpec())
	ctx := context.Background()

	first, err := f.LoadFirstPage(ctx, 5)
	require.NoError(t, err)

	q.setErr(errors.New("sem conexão"))
	page, err := f.LoadMorePage(ctx, 5)
	require.ErrorIs(t, err, ErrQueryFailed)
	require.ErrorIs(t, page.Err, ErrQueryFailed)
	require.Equal(t, ids(first.Items), ids(page.Items))
	require.Equal(t, first.Cursor.ID, page.Cursor.ID)
	require.True(t, page.HasMore)

	q.setErr(nil)
	page, err = f.LoadMorePage(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, page.Err)
	require.Len(t, page.Items, 10)
	require.False(t, page.HasMore)
}

func TestConcurrentLoadIsRejected(t *testing.T) {
	q := &blockingQuerier{inner: seedMentors(t, 3, 0), release: make(chan struct{}), entered: make(chan struct{}, 1)}
	f := NewFetcher(q, approvedSpec())
	ctx := context.Background()

	done := make(chan Page, 1)
	go func() {
		page, _ := f.LoadFirstPage(ctx, 9)
		done <- page
	}()
	<-q.entered
	require.True(t, f.Loading())

	_, err := f.LoadMorePage(ctx, 6)
	require.ErrorIs(t, err, ErrFetchInFlight)

	close(q.release)
	select {
	case page := <-done:
		require.Len(t, page.Items, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
	require.False(t, f.Loading())
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	q := &blockingQuerier{inner: seedMentors(t, 3, 0), release: make(chan struct{}), entered: make(chan struct{}, 1)}
	f := NewFetcher(q, approvedSpec())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.LoadFirstPage(context.Background(), 9)
	}()
	<-q.entered
	f.Reset()
	close(q.release)
	<-done

	require.Empty(t, f.Current().Items)
	require.False(t, f.Loading())
}

func TestClosedFetcherRejectsLoads(t *testing.T) {
	f := NewFetcher(seedMentors(t, 1, 0), approvedSpec())
	f.Close()
	_, err := f.LoadFirstPage(context.Background(), 1)
	require.ErrorIs(t, err, ErrClosed)
}

func TestInvalidPageSize(t *testing.T) {
	f := NewFetcher(seedMentors(t, 1, 0), approvedSpec())
	_, err := f.LoadFirstPage(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestTokenRoundTrip(t *testing.T) {
	cur := &docstore.Cursor{ID: "m1", Value: "Nguyễn Văn An"}
	got, err := DecodeToken(EncodeToken(cur))
	require.NoError(t, err)
	require.Equal(t, cur, got)

	got, err = DecodeToken("")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = DecodeToken("%%%")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestQueryPageWithToken(t *testing.T) {
	store := seedMentors(t, 7, 0)
	ctx := context.Background()

	first, next, err := QueryPage(ctx, store, approvedSpec(), 4, nil)
	require.NoError(t, err)
	require.Len(t, first, 4)
	require.NotNil(t, next)

	after, err := DecodeToken(EncodeToken(next))
	require.NoError(t, err)
	rest, next, err := QueryPage(ctx, store, approvedSpec(), 4, after)
	require.NoError(t, err)
	require.Equal(t, []string{"a04", "a05", "a06"}, ids(rest))
	require.Nil(t, next)
}

type countingQuerier struct {
	inner docstore.Querier
	mu    sync.Mutex
	calls int
	err   error
}

func (q *countingQuerier) Query(ctx context.Context, query docstore.Query) ([]docstore.Document, error) {
	q.mu.Lock()
	q.calls++
	err := q.err
	q.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return q.inner.Query(ctx, query)
}

func (q *countingQuerier) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func (q *countingQuerier) setErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
}

type blockingQuerier struct {
	inner   docstore.Querier
	release chan struct{}
	entered chan struct{}
}

func (q *blockingQuerier) Query(ctx context.Context, query docstore.Query) ([]docstore.Document, error) {
	select {
	case q.entered <- struct{}{}:
	default:
	}
	<-q.release
	return q.inner.Query(ctx, query)
}
