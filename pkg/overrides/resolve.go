package overrides

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/clintharrison/go-ipydeps/pkg/pki"
	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/pingcap/errors"
)

const fetchTimeout = 30 * time.Second

// VersionNamer reports the overrides section names for the target
// interpreter, least specific first.
type VersionNamer interface {
	VersionNames(ctx context.Context) ([]string, error)
}

// Resolver finds overrides for packages. It fetches the document afresh on
// every call and never fails: problems are logged and yield no overrides.
type Resolver struct {
	Link        string
	RequiresPKI bool
	PKI         pki.Provider
	Versions    VersionNamer
	Client      *http.Client
	Log         *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func (r *Resolver) client(ctx context.Context) (*http.Client, error) {
	if r.Client != nil {
		return r.Client, nil
	}
	if !r.RequiresPKI {
		return &http.Client{Timeout: fetchTimeout}, nil //nolint:exhaustruct
	}
	if r.PKI == nil {
		return nil, errors.New("overrides link requires PKI but no PKI credentials are configured")
	}
	tlsConfig, err := r.PKI.TLSConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load PKI credentials")
	}
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
	transport.TLSClientConfig = tlsConfig
	return &http.Client{Transport: transport, Timeout: fetchTimeout}, nil //nolint:exhaustruct
}

// Document fetches and parses the overrides document.
func (r *Resolver) Document(ctx context.Context) (Document, error) {
	if r.Link == "" {
		return Document{}, nil
	}
	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	return r.fetchDocument(ctx, client, r.Link)
}

// Resolve returns the overrides that apply to pkgs. pkgs must already be
// normalized.
func (r *Resolver) Resolve(ctx context.Context, pkgs pkgname.Set) Overrides {
	log := r.logger()
	if pkgs.Len() == 0 {
		return Overrides{}
	}
	if r.Link == "" {
		log.Debug("no dependencies link configured; skipping overrides")
		return Overrides{}
	}

	doc, err := r.Document(ctx)
	if err != nil {
		if httpErr, ok := errors.Cause(err).(*HTTPError); ok { //nolint:errorlint
			log.Error("failed to fetch overrides document",
				"url", httpErr.URL, "status", httpErr.StatusCode, "body", httpErr.Body)
		} else {
			log.Error("unable to load overrides document", "url", r.Link, "error", err)
		}
		return Overrides{}
	}

	names, err := r.Versions.VersionNames(ctx)
	if err != nil {
		log.Error("unable to determine interpreter version; skipping overrides", "error", err)
		return Overrides{}
	}
	found := Find(doc, pkgs, names)
	if len(found) > 0 {
		log.Debug("found overrides", "packages", found.Names())
	}
	return found
}
