package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressFitsWithinBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1024, 768))
	for y := 0; y < 768; y += 16 {
		for x := 0; x < 1024; x += 16 {
			src.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := Compress(buf.Bytes())
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	bounds := decoded.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 512)
	assert.LessOrEqual(t, bounds.Dy(), 512)
	// Aspect ratio survives the fit: 4:3 in, 4:3 out.
	assert.Equal(t, 512, bounds.Dx())
	assert.Equal(t, 384, bounds.Dy())
}

func TestCompressRejectsNonImageBytes(t *testing.T) {
	_, err := Compress([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestPublicIDFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://res.example.com/image/upload/v12/user-profiles/xyz123.jpg", "user-profiles/xyz123"},
		{"https://res.example.com/user-profiles/abc", "user-profiles/abc"},
		{"https://res.example.com/user-profiles/name.with.dots.png", "user-profiles/name"},
		{"", ""},
		{"https://res.example.com/folder/", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PublicIDFromURL(tc.url), "url %q", tc.url)
	}
}
