package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
)

// Weight is a CSS font weight (100-900).
type Weight int

const (
	WeightNormal Weight = 400
	WeightBold   Weight = 700
)

// Generic family names registered by NewFontBook.
const (
	FamilySansSerif = "sans-serif"
	FamilyMonospace = "monospace"
)

// FontStyle describes the font to match.
type FontStyle struct {
	Family string
	Weight Weight
	Size   float64
}

// FontBook maps family names to parsed font files.
type FontBook struct {
	mu       sync.RWMutex
	families map[string]map[Weight]*sfnt.Font
	aliases  map[string]string
	fallback string
}

// NewFontBook creates a book holding the Go font families, registered as
// sans-serif and monospace. Unknown families fall back to sans-serif.
func NewFontBook() *FontBook {
	fb := &FontBook{
		families: make(map[string]map[Weight]*sfnt.Font),
		aliases:  make(map[string]string),
		fallback: FamilySansSerif,
	}
	builtins := []struct {
		family string
		weight Weight
		data   []byte
	}{
		{FamilySansSerif, WeightNormal, goregular.TTF},
		{FamilySansSerif, WeightBold, gobold.TTF},
		{FamilyMonospace, WeightNormal, gomono.TTF},
		{FamilyMonospace, WeightBold, gomonobold.TTF},
	}
	for _, b := range builtins {
		if err := fb.Register(b.family, b.weight, b.data); err != nil {
			panic(fmt.Sprintf("render: builtin font %s: %v", b.family, err))
		}
	}
	for _, alias := range []string{"serif", "system-ui", "arial", "helvetica", "go"} {
		fb.Alias(alias, FamilySansSerif)
	}
	for _, alias := range []string{"mono", "courier", "courier new", "menlo", "go mono"} {
		fb.Alias(alias, FamilyMonospace)
	}
	return fb
}

// Register parses a TrueType/OpenType file and adds it under family/weight.
func (fb *FontBook) Register(family string, weight Weight, data []byte) error {
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}
	key := fb.key(family)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.families[key] == nil {
		fb.families[key] = make(map[Weight]*sfnt.Font)
	}
	fb.families[key][weight] = f
	return nil
}

// Alias resolves name to an already registered family.
func (fb *FontBook) Alias(name, family string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.aliases[fb.key(name)] = fb.key(family)
}

// Has reports whether family (or an alias of it) is registered.
func (fb *FontBook) Has(family string) bool {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	_, ok := fb.families[fb.resolve(fb.key(family))]
	return ok
}

func (fb *FontBook) key(family string) string {
	family = strings.Trim(strings.TrimSpace(family), `"'`)
	// Casers carry state; build one per call.
	return cases.Fold().String(family)
}

func (fb *FontBook) resolve(key string) string {
	if alias, ok := fb.aliases[key]; ok {
		return alias
	}
	return key
}

// lookup picks the first registered family from a comma separated list and
// the registered weight closest to w.
func (fb *FontBook) lookup(families string, w Weight) *sfnt.Font {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	faces := fb.families[fb.fallback]
	for _, name := range strings.Split(families, ",") {
		if f, ok := fb.families[fb.resolve(fb.key(name))]; ok {
			faces = f
			break
		}
	}
	if f, ok := faces[w]; ok {
		return f
	}
	var best *sfnt.Font
	bestDist := 0
	for weight, f := range faces {
		d := int(weight - w)
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist || (d == bestDist && weight > w) {
			best, bestDist = f, d
		}
	}
	return best
}

// Font is a sized typeface resolved from a FontBook.
type Font struct {
	handle
	face  *sfnt.Font
	style FontStyle
	buf   sfnt.Buffer
}

// MatchFont resolves style against the engine's font book. Release the font
// when done.
func (e *Engine) MatchFont(style FontStyle) *Font {
	if style.Weight == 0 {
		style.Weight = WeightNormal
	}
	if style.Family == "" {
		style.Family = FamilySansSerif
	}
	f := &Font{face: e.fonts.lookup(style.Family, style.Weight), style: style}
	f.init(e, KindFont)
	return f
}

// Style returns the style the font was matched with.
func (f *Font) Style() FontStyle { return f.style }

// Size returns the font size in pixels.
func (f *Font) Size() float64 { return f.style.Size }

// Release frees the font.
func (f *Font) Release() {
	f.release()
}

func (f *Font) ppem() fixed.Int26_6 {
	return fixed.Int26_6(f.style.Size * 64)
}

// Metrics returns the ascent, descent and line height for the font's size.
func (f *Font) Metrics() (font.Metrics, error) {
	return f.face.Metrics(&f.buf, f.ppem(), font.HintingNone)
}

// MeasureText returns the advance width of text.
func (f *Font) MeasureText(text string) float64 {
	var (
		x    fixed.Int26_6
		prev sfnt.GlyphIndex
	)
	ppem := f.ppem()
	for i, r := range []rune(text) {
		gi, err := f.face.GlyphIndex(&f.buf, r)
		if err != nil {
			continue
		}
		if i > 0 {
			if k, err := f.face.Kern(&f.buf, prev, gi, ppem, font.HintingNone); err == nil {
				x += k
			}
		}
		adv, err := f.face.GlyphAdvance(&f.buf, gi, ppem, font.HintingNone)
		if err == nil {
			x += adv
		}
		prev = gi
	}
	return float64(x) / 64
}

// appendText adds the glyph outlines of text, with its baseline origin at
// (x, y), to dc's current path.
func (f *Font) appendText(dc *gg.Context, text string, x, y float64) {
	ppem := f.ppem()
	pen := fixed.Int26_6(x * 64)
	var prev sfnt.GlyphIndex
	for i, r := range []rune(text) {
		gi, err := f.face.GlyphIndex(&f.buf, r)
		if err != nil {
			continue
		}
		if i > 0 {
			if k, err := f.face.Kern(&f.buf, prev, gi, ppem, font.HintingNone); err == nil {
				pen += k
			}
		}
		segs, err := f.face.LoadGlyph(&f.buf, gi, ppem, nil)
		if err == nil {
			appendSegments(dc, segs, float64(pen)/64, y)
		}
		if adv, err := f.face.GlyphAdvance(&f.buf, gi, ppem, font.HintingNone); err == nil {
			pen += adv
		}
		prev = gi
	}
}

func appendSegments(dc *gg.Context, segs sfnt.Segments, ox, oy float64) {
	pt := func(p fixed.Point26_6) (float64, float64) {
		return ox + float64(p.X)/64, oy + float64(p.Y)/64
	}
	started := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				dc.ClosePath()
			}
			dc.MoveTo(pt(seg.Args[0]))
			started = true
		case sfnt.SegmentOpLineTo:
			dc.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			dc.QuadraticTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		}
	}
	if started {
		dc.ClosePath()
	}
}
