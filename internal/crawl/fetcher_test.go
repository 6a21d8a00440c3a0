package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T) *CollyFetcher {
	t.Helper()
	return NewCollyFetcher(
		FetcherConfig{UserAgent: "StaffSearchBot/test", Timeout: 5 * time.Second},
		NewFixedDelay(0),
		zap.NewNop(),
	)
}

func TestFetchOK(t *testing.T) {
	t.Parallel()

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer server.Close()

	res, err := newTestFetcher(t).Fetch(context.Background(), server.URL, "", "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "<html>hello</html>", string(res.Body))
	require.Equal(t, `"v1"`, res.ETag)
	require.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", res.LastModified)
	require.Equal(t, "StaffSearchBot/test", gotUA)
}

func TestFetchSendsConditionalHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` && r.Header.Get("If-Modified-Since") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte("fresh"))
	}))
	defer server.Close()

	res, err := newTestFetcher(t).Fetch(context.Background(), server.URL, `"v1"`, "Mon, 02 Jan 2006 15:04:05 GMT")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotModified, res.StatusCode)
}

func TestFetchReturnsErrorStatusAsResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	res, err := newTestFetcher(t).Fetch(context.Background(), server.URL, "", "")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestFetchTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // refuse connections

	_, err := newTestFetcher(t).Fetch(context.Background(), server.URL, "", "")
	require.Error(t, err)
}

func TestFixedDelayHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	NewFixedDelay(5 * time.Second).Wait(ctx)
	require.Less(t, time.Since(start), time.Second)
}
