package resources

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconsDecode(t *testing.T) {
	for _, kind := range []IconKind{IconWatching, IconCounting} {
		img, err := png.Decode(bytes.NewReader(MustIcon(kind)))
		require.NoError(t, err)
		assert.Equal(t, iconSize, img.Bounds().Dx())
	}
	assert.NotEqual(t, Icon(IconWatching), Icon(IconCounting))
	assert.Panics(t, func() { MustIcon(IconKind(9)) })
}
