package utilio

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestContextReaderStopsWhenCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(t.Context())
	r := NewContextReader(ctx, strings.NewReader("hello"))

	buf := make([]byte, 2)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	cancel()
	_, err = r.Read(buf)
	require.Equal(t, context.Canceled, errors.Cause(err))
	require.ErrorContains(t, err, "read cancelled after 2 bytes")
	require.Equal(t, int64(2), r.BytesRead())
}

func TestContextReaderPassesEOFThrough(t *testing.T) {
	t.Parallel()
	r := NewContextReader(t.Context(), strings.NewReader("hi"))
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hi", string(out))

	_, err = r.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}

func TestMaybeXZ(t *testing.T) {
	t.Parallel()
	var compressed bytes.Buffer
	w, err := xz.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"python-3": {}}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	for name, in := range map[string]io.Reader{
		"compressed": &compressed,
		"plain":      strings.NewReader(`{"python-3": {}}`),
	} {
		r, err := MaybeXZ(in)
		require.NoError(t, err, name)
		out, err := io.ReadAll(r)
		require.NoError(t, err, name)
		require.JSONEq(t, `{"python-3": {}}`, string(out), name)
	}
}

func TestMaybeXZShortInput(t *testing.T) {
	t.Parallel()
	r, err := MaybeXZ(strings.NewReader("{}"))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "{}", string(out))
}
