// Package vis renders an execution trace as a timeline window: one row per
// thread, one bar per run slice.
package vis

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"tickos/internal/trace"
)

const (
	screenW = 960
	screenH = 480

	marginX   = 110
	marginY   = 40
	rowHeight = 26
	barHeight = 18
)

var palette = []color.RGBA{
	{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff},
	{R: 0x21, G: 0x96, B: 0xf3, A: 0xff},
	{R: 0xff, G: 0x98, B: 0x00, A: 0xff},
	{R: 0xe9, G: 0x1e, B: 0x63, A: 0xff},
	{R: 0x9c, G: 0x27, B: 0xb0, A: 0xff},
	{R: 0x00, G: 0xbc, B: 0xd4, A: 0xff},
	{R: 0xcd, G: 0xdc, B: 0x39, A: 0xff},
	{R: 0x79, G: 0x55, B: 0x48, A: 0xff},
}

type row struct {
	threadID int
	name     string
}

type viewer struct {
	trace *trace.Trace
	rows  []row
	byID  map[int]int

	start int64
	end   int64
}

func newViewer(tr *trace.Trace) *viewer {
	v := &viewer{trace: tr, byID: map[int]int{}}
	v.start, v.end = tr.Span()

	for _, s := range tr.Slices() {
		if _, ok := v.byID[s.ThreadID]; !ok {
			v.byID[s.ThreadID] = 0
			v.rows = append(v.rows, row{threadID: s.ThreadID, name: s.Name})
		}
	}
	sort.Slice(v.rows, func(i, j int) bool { return v.rows[i].threadID < v.rows[j].threadID })
	for i, r := range v.rows {
		v.byID[r.threadID] = i
	}
	return v
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff})

	span := v.end - v.start
	if span <= 0 {
		span = 1
	}
	scale := float64(screenW-marginX-20) / float64(span)

	header := fmt.Sprintf("ticks %d..%d  (%d slices", v.start, v.end, len(v.trace.Slices()))
	if d := v.trace.Dropped(); d > 0 {
		header += fmt.Sprintf(", %d dropped", d)
	}
	header += ")  esc/q quits"
	ebitenutil.DebugPrintAt(screen, header, marginX, 10)

	for i, r := range v.rows {
		y := marginY + i*rowHeight
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d %s", r.threadID, r.name), 8, y+2)
	}

	for _, s := range v.trace.Slices() {
		rowIdx := v.byID[s.ThreadID]
		x := float32(marginX) + float32(float64(s.Start-v.start)*scale)
		w := float32(float64(s.End-s.Start) * scale)
		if w < 1 {
			w = 1
		}
		y := float32(marginY + rowIdx*rowHeight)
		clr := palette[s.ThreadID%len(palette)]
		vector.DrawFilledRect(screen, x, y, w, barHeight, clr, false)
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

// Show opens a window over the trace and blocks until it is closed.
func Show(tr *trace.Trace) error {
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("tickos timeline")
	if err := ebiten.RunGame(newViewer(tr)); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
