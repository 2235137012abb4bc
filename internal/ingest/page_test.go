package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlo-ai/arlo/internal/log"
)

func TestPageClient_FetchText(t *testing.T) {
	const page = `<!DOCTYPE html>
<html>
<head><title>About</title><style>body { color: red; }</style></head>
<body>
  <script>console.log("tracking")</script>
  <h1>About   the    author</h1>
  <p>Builds   backend systems in Go.</p>
</body>
</html>`

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	client := NewPageClient(log.NewNop())
	text, err := client.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "Builds backend systems in Go.")
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "color: red")
	assert.Equal(t, browserUserAgent, gotUA)
}

func TestPageClient_FetchTextNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewPageClient(log.NewNop())
	_, err := client.FetchText(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "403")
}

func TestPageClient_FetchTextInvalidURL(t *testing.T) {
	client := NewPageClient(log.NewNop())
	_, err := client.FetchText(context.Background(), "http://[::1]:namedport")
	assert.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "drops script and style",
			html: `<body><script>x()</script><style>a{}</style><p>kept</p></body>`,
			want: "kept",
		},
		{
			name: "collapses runs of whitespace",
			html: "<p>one\t\ttwo</p>\n\n<p>three</p>",
			want: "one two\nthree",
		},
		{
			name: "plain text without body",
			html: `<div>hello <b>world</b></div>`,
			want: "hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.html))
		})
	}
}
