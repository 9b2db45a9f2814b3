package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const artworkQuality = 90

// PrepareArtwork turns downloaded cover art into the JPEG that gets
// embedded in every episode. Art larger than maxSide on either edge is
// scaled down to fit a maxSide square. maxSide <= 0 keeps the original
// dimensions and only re-encodes.
func PrepareArtwork(ctx context.Context, data []byte, maxSide int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}

	out := src
	if maxSide > 0 {
		b := src.Bounds()
		if w, h := fitWithin(b.Dx(), b.Dy(), maxSide); w != b.Dx() || h != b.Dy() {
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
			out = dst
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: artworkQuality}); err != nil {
		return nil, fmt.Errorf("encode %s artwork as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales w x h down so neither edge exceeds side. Images that
// already fit are returned unchanged; they are never enlarged.
func fitWithin(w, h, side int) (int, int) {
	if w <= side && h <= side {
		return w, h
	}
	if w >= h {
		return side, max(1, h*side/w)
	}
	return max(1, w*side/h), side
}
