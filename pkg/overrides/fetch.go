package overrides

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/clintharrison/go-ipydeps/pkg/utilio"
	"github.com/clintharrison/go-ipydeps/pkg/version"
	"github.com/pingcap/errors"
)

// HTTPError is returned for responses with a 4xx or 5xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// openURL opens an http, https or file URL for reading.
func openURL(ctx context.Context, client *http.Client, rawurl string) (io.ReadCloser, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid URL %q", rawurl)
	}
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "http.NewRequestWithContext(%q)", u.String())
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", version.FullVersion)

		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "http.Get(%q)", u.String())
		}
		if resp.StatusCode >= http.StatusBadRequest {
			defer resp.Body.Close() //nolint:errcheck
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			return nil, &HTTPError{URL: u.String(), StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return resp.Body, nil
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "os.Open(%q)", u.Path)
		}
		return f, nil
	default:
		return nil, errors.Errorf("unsupported URL scheme %q in %q", u.Scheme, rawurl)
	}
}

// fetchDocument downloads and parses the overrides document at rawurl. The
// body may be xz compressed.
func (r *Resolver) fetchDocument(ctx context.Context, client *http.Client, rawurl string) (Document, error) {
	body, err := openURL(ctx, client, rawurl)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	in, err := utilio.MaybeXZ(utilio.NewContextReader(ctx, body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", rawurl)
	}
	return Parse(r.Log, in)
}
