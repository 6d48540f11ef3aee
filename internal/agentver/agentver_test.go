// SPDX-License-Identifier: MPL-2.0

package agentver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("2.1.0\n"))
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL))
	if got := c.LatestVersion(context.Background()); got != "2.1.0" {
		t.Errorf("LatestVersion() = %q, want %q", got, "2.1.0")
	}
}

func TestLatestVersion_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("  \n"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(WithEndpoint(srv.URL))
			if got := c.LatestVersion(context.Background()); got != FallbackVersion {
				t.Errorf("LatestVersion() = %q, want %q", got, FallbackVersion)
			}
		})
	}
}

func TestLatestVersion_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections from here on

	c := NewClient(WithEndpoint(srv.URL))
	if got := c.LatestVersion(context.Background()); got != FallbackVersion {
		t.Errorf("LatestVersion() = %q, want %q", got, FallbackVersion)
	}
}

func TestLatestVersion_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("2.1.0"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(WithEndpoint(srv.URL))
	if got := c.LatestVersion(ctx); got != FallbackVersion {
		t.Errorf("LatestVersion() = %q, want %q", got, FallbackVersion)
	}
}
