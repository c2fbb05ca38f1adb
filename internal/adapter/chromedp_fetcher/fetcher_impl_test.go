package chromedp_fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/dsnval-service/internal/entity"
	"go.uber.org/zap/zaptest"
)

func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary on PATH")
}

func TestFetchRendersPage(t *testing.T) {
	requireChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><strong id="v"></strong>
<script>document.getElementById("v").textContent = "Version 2024.1 42 du 15 mars 2024";</script>
</body></html>`))
	}))
	defer srv.Close()

	f := NewChromedpFetcher(20*time.Second, false, nil, zaptest.NewLogger(t))
	defer f.Close()

	html, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "Version 2024.1 42 du 15 mars 2024")
}

func TestFetchHonoursCallerCancellation(t *testing.T) {
	requireChrome(t)

	f := NewChromedpFetcher(20*time.Second, false, nil, zaptest.NewLogger(t))
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, entity.ErrNetwork)
}
