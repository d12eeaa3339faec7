package core_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/slideinfo/core"
)

func TestCompressions_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("II*\x00slide"), 1000)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := zw.EncodeAll(payload, nil)
	require.NoError(t, zw.Close())

	tests := []struct {
		c    core.Compression
		data []byte
	}{
		{core.GzipCompression(), gz.Bytes()},
		{core.ZstdCompression(), zs},
	}

	for _, tt := range tests {
		t.Run(tt.c.Name(), func(t *testing.T) {
			t.Parallel()

			assert.True(t, tt.c.Match(tt.data[:8]))
			assert.False(t, tt.c.Match(payload[:8]))
			assert.False(t, tt.c.Match(nil))

			r, err := tt.c.NewReader(bytes.NewReader(tt.data))
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestGzipCompression_BadHeader(t *testing.T) {
	t.Parallel()

	r, err := core.GzipCompression().NewReader(bytes.NewReader([]byte{0x1f, 0x8b, 0, 0}))
	require.Error(t, err)
	assert.Nil(t, r)
}

func TestDefaultCompressions(t *testing.T) {
	t.Parallel()

	var names []string
	for _, c := range core.DefaultCompressions() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"gzip", "zstd"}, names)
}
