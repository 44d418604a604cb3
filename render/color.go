package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// extraColors holds the CSS keywords colornames.Map lacks.
var extraColors = map[string]color.NRGBA{
	"transparent":   {0, 0, 0, 0},
	"rebeccapurple": {102, 51, 153, 255},
}

// namedColor resolves a lowercase CSS color keyword.
func namedColor(name string) (color.NRGBA, bool) {
	if c, ok := extraColors[name]; ok {
		return c, true
	}
	c, ok := colornames.Map[name]
	if !ok {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
}

// ParseColor decodes a CSS color string: a keyword, #rgb, #rgba, #rrggbb,
// #rrggbbaa, rgb()/rgba() or hsl()/hsla().
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.NRGBA{}, false
	}

	if c, ok := namedColor(s); ok {
		return c, true
	}

	if strings.HasPrefix(s, "#") {
		return parseHashColor(s[1:])
	}

	name, args, ok := splitFunction(s)
	if !ok {
		return color.NRGBA{}, false
	}
	switch name {
	case "rgb", "rgba":
		return parseRGBArgs(args)
	case "hsl", "hsla":
		return parseHSLArgs(args)
	}
	return color.NRGBA{}, false
}

// ColorFromARGB converts a packed 0xAARRGGBB value.
func ColorFromARGB(argb uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
		A: uint8(argb >> 24),
	}
}

// FormatColor serializes a color the way canvas style getters do: #rrggbb
// when opaque, rgba() with alpha rounded to three decimals otherwise.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return "#" + hexByte(c.R) + hexByte(c.G) + hexByte(c.B)
	}
	alpha := strconv.FormatFloat(math.Round(float64(c.A)/255*1000)/1000, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, alpha)
}

func hexByte(b uint8) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}

func parseHashColor(hex string) (color.NRGBA, bool) {
	for i := 0; i < len(hex); i++ {
		if _, ok := hexDigit(hex[i]); !ok {
			return color.NRGBA{}, false
		}
	}
	d := func(i int) uint8 {
		v, _ := hexDigit(hex[i])
		return v
	}

	switch len(hex) {
	case 3:
		return color.NRGBA{R: d(0) * 17, G: d(1) * 17, B: d(2) * 17, A: 255}, true
	case 4:
		return color.NRGBA{R: d(0) * 17, G: d(1) * 17, B: d(2) * 17, A: d(3) * 17}, true
	case 6:
		return color.NRGBA{R: d(0)<<4 | d(1), G: d(2)<<4 | d(3), B: d(4)<<4 | d(5), A: 255}, true
	case 8:
		return color.NRGBA{R: d(0)<<4 | d(1), G: d(2)<<4 | d(3), B: d(4)<<4 | d(5), A: d(6)<<4 | d(7)}, true
	}
	return color.NRGBA{}, false
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// splitFunction splits "name(a, b, c)" or "name(a b c / d)" into its name
// and argument tokens.
func splitFunction(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(s[:open])
	body := s[open+1 : len(s)-1]
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)
	return name, strings.Fields(body), true
}

func parseRGBArgs(args []string) (color.NRGBA, bool) {
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, false
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i])
		if !ok {
			return color.NRGBA{}, false
		}
		rgb[i] = v
	}
	a := uint8(255)
	if len(args) == 4 {
		v, ok := parseAlpha(args[3])
		if !ok {
			return color.NRGBA{}, false
		}
		a = v
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: a}, true
}

func parseHSLArgs(args []string) (color.NRGBA, bool) {
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, false
	}
	s, ok1 := parsePercent(args[1])
	l, ok2 := parsePercent(args[2])
	if !ok1 || !ok2 {
		return color.NRGBA{}, false
	}
	a := uint8(255)
	if len(args) == 4 {
		v, ok := parseAlpha(args[3])
		if !ok {
			return color.NRGBA{}, false
		}
		a = v
	}
	r, g, b := hslToRGB(h, s, l)
	return color.NRGBA{R: unit8(r), G: unit8(g), B: unit8(b), A: a}, true
}

// parseChannel accepts 0-255 numbers or percentages.
func parseChannel(tok string) (uint8, bool) {
	if strings.HasSuffix(tok, "%") {
		p, ok := parsePercent(tok)
		return unit8(p), ok
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return clamp8(v), true
}

// parseAlpha accepts 0-1 numbers or percentages.
func parseAlpha(tok string) (uint8, bool) {
	if strings.HasSuffix(tok, "%") {
		p, ok := parsePercent(tok)
		return unit8(p), ok
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return unit8(v), true
}

func parsePercent(tok string) (float64, bool) {
	if !strings.HasSuffix(tok, "%") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
	if err != nil {
		return 0, false
	}
	return math.Max(0, math.Min(1, v/100)), true
}

func unit8(v float64) uint8 {
	return clamp8(v * 255)
}

func clamp8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r = hueToRGB(p, q, h+1.0/3.0)
	g = hueToRGB(p, q, h)
	b = hueToRGB(p, q, h-1.0/3.0)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
