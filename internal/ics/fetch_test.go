package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		raw      string
		path     string
		expected bool
	}{
		{"file:///tmp/cal.ics", "/tmp/cal.ics", true},
		{"/tmp/cal.ics", "/tmp/cal.ics", true},
		{"cal.ics", "cal.ics", true},
		{"https://example.com/cal.ics", "", false},
		{"webcal://example.com/cal.ics", "", false},
	}
	for _, tt := range tests {
		path, ok := localPath(tt.raw)
		assert.Equal(t, tt.expected, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.path, path, "raw=%q", tt.raw)
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/cal.ics",
		redactURL("https://example.com/cal.ics?token=secret#frag"))
}

func TestFetchOne_UsesETagCache(t *testing.T) {
	const payload = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	requests := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(payload))
	}))
	defer ts.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "remote", URL: ts.URL}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, payload, string(first.Body))

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, payload, string(second.Body))
	assert.Equal(t, 2, requests)
}

func TestFetchOne_EmptyURL(t *testing.T) {
	f := NewFetcher(t.TempDir())
	_, err := f.FetchOne(context.Background(), Source{ID: "bad"})
	assert.Error(t, err)
}

func TestFetchAll_CollectsErrors(t *testing.T) {
	dir := t.TempDir()
	f := NewFetcher(dir)

	results, errs := f.FetchAll(context.Background(), []Source{
		{ID: "missing", URL: dir + "/nope.ics"},
	})
	assert.Empty(t, results)
	assert.Len(t, errs, 1)
}
