package utilio

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"

	"github.com/pingcap/errors"
	"github.com/ulikunitz/xz"
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// MaybeXZ returns a reader that transparently decompresses r when it starts
// with the xz stream header, and passes it through unchanged otherwise.
func MaybeXZ(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF { //nolint:errorlint
		return nil, errors.AddStack(err)
	}
	if !bytes.Equal(head, xzMagic) {
		return br, nil
	}
	slog.Debug("input is xz compressed")
	xr, err := xz.NewReader(br)
	if err != nil {
		return nil, errors.Wrap(err, "xz.NewReader()")
	}
	return xr, nil
}
