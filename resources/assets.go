package resources

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 22

// IconKind selects a tray icon variant.
type IconKind int

const (
	IconWatching IconKind = iota
	IconCounting
)

var (
	iconOnce  sync.Once
	iconCache map[IconKind][]byte
)

var iconColors = map[IconKind]color.NRGBA{
	IconWatching: {R: 0x3c, G: 0xa5, B: 0x5c, A: 0xff},
	IconCounting: {R: 0xe6, G: 0x8a, B: 0x00, A: 0xff},
}

// Icon returns the PNG bytes for kind.
func Icon(kind IconKind) []byte {
	iconOnce.Do(func() {
		iconCache = make(map[IconKind][]byte, len(iconColors))
		for iconKind, fill := range iconColors {
			iconCache[iconKind] = renderDot(fill)
		}
	})
	return iconCache[kind]
}

// MustIcon is Icon but panics for an unknown kind.
func MustIcon(kind IconKind) []byte {
	data := Icon(kind)
	if data == nil {
		panic("unknown icon kind")
	}
	return data
}

func renderDot(fill color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize-1) / 2
	radius := float64(iconSize)/2 - 1
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, fill)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
