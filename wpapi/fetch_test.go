package wpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelcarwile/wp-rest-importer/wpapi"
)

// fakePost builds one WP REST item payload.
func fakePost(id int, date, title string) map[string]any {
	return map[string]any{
		"id":         id,
		"date":       date,
		"slug":       fmt.Sprintf("post-%d", id),
		"link":       fmt.Sprintf("https://example.com/?p=%d", id),
		"title":      map[string]any{"rendered": title},
		"content":    map[string]any{"rendered": fmt.Sprintf("<p>body %d</p>", id)},
		"categories": []int{},
		"tags":       []int{},
	}
}

// servePosts answers /wp-json/wp/v2/posts with per_page/page slicing over the
// given items and an X-WP-Total header, like a WordPress site does.
func servePosts(t *testing.T, mux *http.ServeMux, posts []map[string]any, requests *[]int) {
	t.Helper()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if requests != nil {
			*requests = append(*requests, page)
		}

		start := (page - 1) * perPage
		end := start + perPage
		if start > len(posts) {
			start = len(posts)
		}
		if end > len(posts) {
			end = len(posts)
		}

		w.Header().Set("X-WP-Total", strconv.Itoa(len(posts)))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(posts[start:end]))
	})
}

func TestFetchAllPaginates(t *testing.T) {
	posts := make([]map[string]any, 0, 25)
	for i := 1; i <= 25; i++ {
		posts = append(posts, fakePost(i, fmt.Sprintf("2024-01-%02dT10:00:00", (i%27)+1), fmt.Sprintf("Post %d", i)))
	}

	var requests []int
	mux := http.NewServeMux()
	servePosts(t, mux, posts, &requests)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := wpapi.NewClient(srv.URL, wpapi.WithPerPage(20), wpapi.WithDelay(0))
	items, report, err := client.FetchAll(context.Background(), "posts")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, requests)
	assert.Equal(t, 25, report.Expected)
	assert.Equal(t, 25, report.Retrieved)
	assert.Equal(t, 2, report.Pages)
	assert.True(t, report.Complete())
	require.Len(t, items, 25)

	seen := make(map[int]bool)
	for _, item := range items {
		assert.False(t, seen[item.ID], "duplicate id %d", item.ID)
		seen[item.ID] = true
		assert.Equal(t, "posts", item.Type)
	}
}

func TestFetchAllPageCountMath(t *testing.T) {
	for _, tc := range []struct {
		total, perPage, pages int
	}{
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 7, 15},
	} {
		posts := make([]map[string]any, 0, tc.total)
		for i := 1; i <= tc.total; i++ {
			posts = append(posts, fakePost(i, "2024-01-01T00:00:00", fmt.Sprintf("Post %d", i)))
		}

		var requests []int
		mux := http.NewServeMux()
		servePosts(t, mux, posts, &requests)
		srv := httptest.NewServer(mux)

		client := wpapi.NewClient(srv.URL, wpapi.WithPerPage(tc.perPage), wpapi.WithDelay(0))
		items, report, err := client.FetchAll(context.Background(), "posts")
		srv.Close()

		require.NoError(t, err)
		assert.Len(t, requests, tc.pages, "total=%d per_page=%d", tc.total, tc.perPage)
		assert.Equal(t, tc.pages, report.Pages)
		assert.Len(t, items, tc.total)
	}
}

func TestFetchAllSleepsBetweenPages(t *testing.T) {
	posts := make([]map[string]any, 0, 25)
	for i := 1; i <= 25; i++ {
		posts = append(posts, fakePost(i, "2024-01-01T00:00:00", fmt.Sprintf("Post %d", i)))
	}

	var stamps []time.Time
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		start, end := (page-1)*20, page*20
		if end > len(posts) {
			end = len(posts)
		}
		w.Header().Set("X-WP-Total", strconv.Itoa(len(posts)))
		json.NewEncoder(w).Encode(posts[start:end])
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	delay := 80 * time.Millisecond
	client := wpapi.NewClient(srv.URL, wpapi.WithPerPage(20), wpapi.WithDelay(delay))

	begin := time.Now()
	_, _, err := client.FetchAll(context.Background(), "posts")
	elapsed := time.Since(begin)
	require.NoError(t, err)

	require.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), delay)
	// one pause between two pages, none after the last
	assert.Less(t, elapsed, 2*delay)
}

func TestFetchAllContinuesPastFailedPage(t *testing.T) {
	posts := make([]map[string]any, 0, 50)
	for i := 1; i <= 50; i++ {
		posts = append(posts, fakePost(i, "2024-01-01T00:00:00", fmt.Sprintf("Post %d", i)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 2 {
			http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
			return
		}
		start, end := (page-1)*20, page*20
		if end > len(posts) {
			end = len(posts)
		}
		w.Header().Set("X-WP-Total", strconv.Itoa(len(posts)))
		json.NewEncoder(w).Encode(posts[start:end])
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := wpapi.NewClient(srv.URL, wpapi.WithPerPage(20), wpapi.WithDelay(0))
	items, report, err := client.FetchAll(context.Background(), "posts")
	require.NoError(t, err)

	assert.Len(t, items, 30)
	assert.Equal(t, 50, report.Expected)
	assert.Equal(t, 30, report.Retrieved)
	assert.False(t, report.Complete())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Page)
	assert.Equal(t, 20, report.Failures[0].StartIndex)
	assert.Equal(t, 40, report.Failures[0].EndIndex)
}

func TestFetchAllEmptyType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-Total", "0")
		json.NewEncoder(w).Encode([]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := wpapi.NewClient(srv.URL, wpapi.WithDelay(0))
	items, report, err := client.FetchAll(context.Background(), "posts")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, report.Expected)
}

func TestFetchAllMissingTotalHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{fakePost(1, "2024-01-01T00:00:00", "Post")})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := wpapi.NewClient(srv.URL, wpapi.WithDelay(0))
	items, report, err := client.FetchAll(context.Background(), "posts")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, report.Expected)
}

func TestFetchAllDecodesItemFields(t *testing.T) {
	post := fakePost(7, "2023-06-15T08:30:00", "Ben &amp; Jerry &#8211; a review")
	post["categories"] = []int{3, 1}
	post["tags"] = []int{9}

	mux := http.NewServeMux()
	servePosts(t, mux, []map[string]any{post}, nil)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := wpapi.NewClient(srv.URL, wpapi.WithDelay(0))
	items, _, err := client.FetchAll(context.Background(), "posts")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, 7, item.ID)
	assert.Equal(t, "Ben & Jerry – a review", item.Title)
	assert.Equal(t, "post-7", item.Slug)
	assert.Equal(t, "2023-06-15T08:30:00", item.RawDate)
	assert.Equal(t, time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC), item.PublishedAt)
	assert.Equal(t, []int{3, 1}, item.CategoryIDs)
	assert.Equal(t, []int{9}, item.TagIDs)
	assert.Equal(t, "<p>body 7</p>", item.HTML)
}
