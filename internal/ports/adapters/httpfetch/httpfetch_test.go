package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/topicreel/internal/types"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 100*1024))
	})
	mux.HandleFunc("/empty.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/gone.mp3", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_StreamsToWorkspace(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	dir := t.TempDir()
	var progress bytes.Buffer
	f := New(dir, WithProgress(&progress))

	asset, err := f.Fetch(context.Background(), []string{"", srv.URL + "/clip.mp4", srv.URL + "/gone.mp3"}, types.KindVideo, ".mp4")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Dir(asset.Path) != dir {
		t.Fatalf("asset outside workspace: %s", asset.Path)
	}
	if !strings.HasSuffix(asset.Path, ".mp4") || !strings.HasPrefix(filepath.Base(asset.Path), "video-") {
		t.Fatalf("unexpected name %s", asset.Path)
	}
	st, err := os.Stat(asset.Path)
	if err != nil || st.Size() != 100*1024 || asset.Bytes != 100*1024 {
		t.Fatalf("unexpected size: %v %d", err, asset.Bytes)
	}
	if asset.Kind != types.KindVideo || asset.URL != srv.URL+"/clip.mp4" {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestFetch_Failures(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	tests := []struct {
		name       string
		urls       []string
		wantStatus int
		wantErr    error
	}{
		{"http error", []string{srv.URL + "/gone.mp3"}, http.StatusNotFound, errHTTP},
		{"empty body", []string{srv.URL + "/empty.mp3"}, 0, ErrEmpty},
		{"no url", []string{"  "}, 0, ErrNoURL},
		{"nil list", nil, 0, ErrNoURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			_, err := New(dir).Fetch(context.Background(), tt.urls, types.KindAudio, ".mp3")
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FetchError, got %v", err)
			}
			if fe.StatusCode != tt.wantStatus || !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error %+v", fe)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Fatalf("failed fetch left %d files behind", len(entries))
			}
		})
	}
}

func TestFetch_TransportError(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	url := srv.URL + "/clip.mp4"
	srv.Close()

	_, err := New(t.TempDir()).Fetch(context.Background(), []string{url}, types.KindVideo, ".mp4")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.URL != url {
		t.Fatalf("expected FetchError for %s, got %v", url, err)
	}
}
