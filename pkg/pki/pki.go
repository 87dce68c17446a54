// Package pki supplies client credentials for fetching the overrides
// document and for pip.
package pki

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pingcap/errors"
)

// Provider hands out client credentials on demand.
type Provider interface {
	// KeyCert returns paths to a PEM private key and certificate. cleanup
	// must be called once the paths are no longer needed.
	KeyCert(ctx context.Context) (keyPath, certPath string, cleanup func(), err error)
	// CAPath is a PEM bundle of trusted certificate authorities, or "".
	CAPath() string
	TLSConfig(ctx context.Context) (*tls.Config, error)
}

// FileProvider serves credentials that already live on disk.
type FileProvider struct {
	KeyPath  string
	CertPath string
	CA       string
}

var _ Provider = (*FileProvider)(nil)

func NewFileProvider(keyPath, certPath, caPath string) *FileProvider {
	return &FileProvider{KeyPath: keyPath, CertPath: certPath, CA: caPath}
}

func (p *FileProvider) KeyCert(context.Context) (string, string, func(), error) {
	for _, f := range []string{p.KeyPath, p.CertPath} {
		if f == "" {
			return "", "", nil, errors.New("pki key and certificate paths must both be set")
		}
		if _, err := os.Stat(f); err != nil {
			return "", "", nil, errors.Wrapf(err, "os.Stat(%q)", f)
		}
	}
	return p.KeyPath, p.CertPath, func() {}, nil
}

func (p *FileProvider) CAPath() string {
	return p.CA
}

func (p *FileProvider) TLSConfig(ctx context.Context) (*tls.Config, error) {
	keyPath, certPath, cleanup, err := p.KeyCert(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "tls.LoadX509KeyPair(%q, %q)", certPath, keyPath)
	}
	cfg := &tls.Config{ //nolint:exhaustruct
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if p.CA != "" {
		pem, err := os.ReadFile(p.CA)
		if err != nil {
			return nil, errors.Wrapf(err, "os.ReadFile(%q)", p.CA)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in %q", p.CA)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// CombineKeyAndCert writes the key followed by the certificate into a new
// private temporary file, the single-file form pip's --client-cert expects.
// The caller owns the returned file and must remove it.
func CombineKeyAndCert(keyPath, certPath string) (string, error) {
	f, err := os.CreateTemp("", "ipydeps-client-*.pem")
	if err != nil {
		return "", errors.Wrap(err, "os.CreateTemp()")
	}
	path := f.Name()
	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Chmod(0o600); err != nil {
		return fail(errors.Wrapf(err, "chmod %q", path))
	}
	for _, src := range []string{keyPath, certPath} {
		data, err := os.ReadFile(src)
		if err != nil {
			return fail(errors.Wrapf(err, "os.ReadFile(%q)", src))
		}
		if _, err := f.Write(data); err != nil {
			return fail(errors.Wrapf(err, "write %q", path))
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				return fail(errors.Wrapf(err, "write %q", path))
			}
		}
	}
	if err := f.Close(); err != nil {
		return fail(errors.Wrapf(err, "close %q", path))
	}
	return path, nil
}
