package utilio

import (
	"context"
	"io"

	"github.com/pingcap/errors"
)

// ContextReader fails reads once ctx is done. Errors from the underlying
// reader, io.EOF included, are passed through untouched.
type ContextReader struct {
	ctx context.Context //nolint:containedctx
	r   io.Reader
	n   int64
}

func NewContextReader(ctx context.Context, r io.Reader) *ContextReader {
	return &ContextReader{ctx: ctx, r: r, n: 0}
}

func (r *ContextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, errors.Annotatef(err, "read cancelled after %d bytes", r.n)
	}
	n, err := r.r.Read(p)
	r.n += int64(n)
	return n, err //nolint:wrapcheck
}

// BytesRead reports how much has been read so far.
func (r *ContextReader) BytesRead() int64 {
	return r.n
}
