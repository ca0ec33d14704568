package frontend

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// iconRenderer rasterizes the embedded SVG icon once and keeps the PNG.
type iconRenderer struct {
	size int

	once sync.Once
	data []byte
	err  error
}

func newIconRenderer(size int) *iconRenderer {
	return &iconRenderer{size: size}
}

func (r *iconRenderer) png() ([]byte, error) {
	r.once.Do(func() {
		svg, err := assetsFS.ReadFile("views/icon.svg")
		if err != nil {
			r.err = fmt.Errorf("failed to read icon: %w", err)
			return
		}
		r.data, r.err = rasterizeSVG(svg, r.size)
	})
	return r.data, r.err
}

func rasterizeSVG(svg []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid icon size %d", size)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
