package canvas

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/chrisuehlinger/canvashim/render"
)

// DefaultFont is the context's initial font and the fallback for font
// strings that cannot be parsed.
const DefaultFont = "10px sans-serif"

const defaultFontSize = 10

// fontPattern matches "[weight ]<size>(px|pt) <family>" anywhere in the
// string, so leading tokens such as a font style are skipped.
var fontPattern = regexp.MustCompile(`(?:(\w+) )?(\d+)(px|pt) (.*)`)

// parseFont resolves a CSS-like font string. Sizes in pt are converted to
// px at 4/3 and rounded.
func parseFont(s string) render.FontStyle {
	m := fontPattern.FindStringSubmatch(s)
	if m == nil {
		return render.FontStyle{Family: render.FamilySansSerif, Weight: render.WeightNormal, Size: defaultFontSize}
	}
	size, err := strconv.Atoi(m[2])
	if err != nil {
		size = defaultFontSize
	}
	if m[3] == "pt" {
		size = int(math.Round(float64(size) * 4 / 3))
	}
	family := strings.TrimSpace(m[4])
	if family == "" {
		family = render.FamilySansSerif
	}
	return render.FontStyle{
		Family: family,
		Weight: parseWeight(m[1]),
		Size:   float64(size),
	}
}

func parseWeight(tok string) render.Weight {
	switch strings.ToLower(tok) {
	case "bold", "bolder":
		return render.WeightBold
	case "lighter":
		return 300
	}
	if n, err := strconv.Atoi(tok); err == nil && n >= 1 && n <= 1000 {
		return render.Weight(n)
	}
	return render.WeightNormal
}
