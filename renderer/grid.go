// Package renderer draws the simulation grid with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/leyline/field"
)

// Base colours per terrain state.
var terrainColors = [field.NumTerrains]color.RGBA{
	field.Barren:       {R: 255, G: 255, B: 255, A: 255},
	field.Attuned:      {R: 70, G: 110, B: 230, A: 255},
	field.Crystallized: {R: 60, G: 220, B: 230, A: 255},
	field.AncientTree:  {R: 40, G: 170, B: 60, A: 255},
}

// corruptionTint is the colour fully corrupted cells lean toward.
var corruptionTint = color.RGBA{R: 77, G: 0, B: 0, A: 255}

// CellColor combines a cell's terrain colour with its corruption level.
// The terrain colour is blended toward dark red by up to 80%.
func CellColor(t field.Terrain, c float32) color.RGBA {
	base := terrainColors[t]
	k := field.Clamp01(c) * 0.8
	return color.RGBA{
		R: lerp8(base.R, corruptionTint.R, k),
		G: lerp8(base.G, corruptionTint.G, k),
		B: lerp8(base.B, corruptionTint.B, k),
		A: 255,
	}
}

func lerp8(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t + 0.5)
}

// FillPixels writes one colour per cell in row-major order.
func FillPixels(r field.Reader, pixels []color.RGBA) []color.RGBA {
	w, h := r.Width(), r.Height()
	if cap(pixels) < w*h {
		pixels = make([]color.RGBA, w*h)
	}
	pixels = pixels[:w*h]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels[y*w+x] = CellColor(r.Terrain(x, y), r.Corruption(x, y))
		}
	}
	return pixels
}

// GridRenderer keeps a one-texel-per-cell texture in sync with the grid and
// draws it scaled to cell size. The texture is re-uploaded only after the
// grid commits a new revision.
type GridRenderer struct {
	texture     rl.Texture2D
	pixels      []color.RGBA
	gridW       int
	gridH       int
	drawnRev    uint64
	initialized bool
	dirty       bool
}

// NewGridRenderer creates a renderer bound to g. Call Init after the
// raylib window exists.
func NewGridRenderer(g *field.Grid) *GridRenderer {
	r := &GridRenderer{gridW: g.Width(), gridH: g.Height(), dirty: true}
	g.Subscribe(func(rev uint64) {
		if rev != r.drawnRev {
			r.dirty = true
		}
	})
	return r
}

// Init allocates the GPU texture.
func (r *GridRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.GenImageColor(r.gridW, r.gridH, rl.White)
	r.texture = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.texture, rl.FilterPoint)
	rl.UnloadImage(img)
	r.initialized = true
}

// Invalidate forces an upload on the next Draw.
func (r *GridRenderer) Invalidate() { r.dirty = true }

// Draw renders the grid with its top-left corner at (x, y).
func (r *GridRenderer) Draw(g *field.Grid, x, y, cellSize float32) {
	if !r.initialized {
		r.Init()
	}
	if r.dirty {
		r.pixels = FillPixels(g, r.pixels)
		rl.UpdateTexture(r.texture, r.pixels)
		r.drawnRev = g.Revision()
		r.dirty = false
	}

	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(r.gridW), Height: float32(r.gridH)}
	dstRect := rl.Rectangle{X: x, Y: y, Width: float32(r.gridW) * cellSize, Height: float32(r.gridH) * cellSize}
	rl.DrawTexturePro(r.texture, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
}

// DrawGridLines outlines every cell.
func (r *GridRenderer) DrawGridLines(x, y, cellSize float32) {
	lineColor := rl.Color{R: 0, G: 0, B: 0, A: 40}
	w := float32(r.gridW) * cellSize
	h := float32(r.gridH) * cellSize
	for gx := 0; gx <= r.gridW; gx++ {
		px := int32(x + float32(gx)*cellSize)
		rl.DrawLine(px, int32(y), px, int32(y+h), lineColor)
	}
	for gy := 0; gy <= r.gridH; gy++ {
		py := int32(y + float32(gy)*cellSize)
		rl.DrawLine(int32(x), py, int32(x+w), py, lineColor)
	}
}

// Unload frees GPU resources.
func (r *GridRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.texture)
	r.initialized = false
}
