package intake

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeedURL(t *testing.T) {
	c := New("https://intake.example.com/feeds/", time.Second, testLogger())

	assert.Equal(t, "https://intake.example.com/feeds/metro/latest.zip", c.FeedURL("metro"))
	assert.Equal(t, "https://intake.example.com/feeds/ac%2Ftransit/latest.zip", c.FeedURL("ac/transit"))
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"trips.txt": "trip_id,service_id\nT1,S1\n",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metro/latest.zip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, testLogger())

	reader, raw, err := c.Fetch(context.Background(), "metro")
	require.NoError(t, err)
	assert.Equal(t, archive, raw)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "trips.txt", reader.File[0].Name)
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, testLogger())

	_, _, err := c.Fetch(context.Background(), "metro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metro")
}
