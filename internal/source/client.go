package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GitHub wants an identifying agent. Marketing pages and nitter
// mirrors tend to refuse obvious bots, so scrapes present a browser.
const (
	botUA     = "Zama-News-Bot"
	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

const defaultTimeout = 10 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// fetch GETs url with the given headers and returns the body. Every
// failure mode wraps ErrUnavailable; callers only distinguish
// available from not.
func fetch(ctx context.Context, client *http.Client, url string, header map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s: %v", ErrUnavailable, url, err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, url, err)
	}
	return body, nil
}
