package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/patterns.json":
			if r.Header.Get("User-Agent") != "recognizer" {
				http.Error(w, "missing header", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"star":"star"}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL + "/")
	c.SetHeader("User-Agent", "recognizer")

	body, err := c.Get(context.Background(), "/patterns.json")
	require.NoError(t, err)
	require.Equal(t, `{"star":"star"}`, string(body))

	_, err = c.Get(context.Background(), "missing.json")
	require.ErrorContains(t, err, "404")
}

func TestBaseClientURL(t *testing.T) {
	c := NewBaseClient("http://example.com/app/")
	require.Equal(t, "http://example.com/app/images/star.png", c.URL("images/star.png"))
	require.Equal(t, "http://example.com/app/images/star.png", c.URL("/images/star.png"))
	require.Equal(t, "https://cdn.example.com/x.png", c.URL("https://cdn.example.com/x.png"))
}
