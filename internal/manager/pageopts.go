package manager

import (
	"math"
	"strconv"
	"strings"

	"renderd/pkg/types"
)

const defaultMargin = "0.5cm"

type paperSize struct{ widthIn, heightIn float64 }

var paperSizes = map[string]paperSize{
	types.FormatA4:     {widthIn: mmToInches(210), heightIn: mmToInches(297)},
	types.FormatLetter: {widthIn: 8.5, heightIn: 11},
}

// normalizePage fills unset fields with defaults (A4, portrait, 0.5cm margins)
// and rejects values the engine cannot print.
func normalizePage(p types.PageOptions) (types.PageOptions, error) {
	switch strings.ToLower(strings.TrimSpace(p.Format)) {
	case "", "a4":
		p.Format = types.FormatA4
	case "letter":
		p.Format = types.FormatLetter
	default:
		return p, invalidRequest("unsupported page format %q", p.Format)
	}
	switch strings.ToLower(strings.TrimSpace(p.Orientation)) {
	case "", types.OrientationPortrait:
		p.Orientation = types.OrientationPortrait
	case types.OrientationLandscape:
		p.Orientation = types.OrientationLandscape
	default:
		return p, invalidRequest("unsupported orientation %q", p.Orientation)
	}
	var in [4]float64 // top, right, bottom, left
	for i, side := range []*string{&p.Margins.Top, &p.Margins.Right, &p.Margins.Bottom, &p.Margins.Left} {
		if strings.TrimSpace(*side) == "" {
			*side = defaultMargin
		}
		v, err := parseLength(*side)
		if err != nil {
			return p, err
		}
		in[i] = v
	}
	size := paperSizes[p.Format]
	w, h := size.widthIn, size.heightIn
	if p.Orientation == types.OrientationLandscape {
		w, h = h, w
	}
	if in[1]+in[3] >= w || in[0]+in[2] >= h {
		return p, invalidRequest("margins leave no printable area on %s %s", p.Format, p.Orientation)
	}
	return p, nil
}

// parseLength converts a CSS length (mm, cm, in, px, pt; bare numbers are px)
// to inches.
func parseLength(s string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	div := 96.0
	for _, u := range []struct {
		suffix string
		perIn  float64
	}{{"mm", 25.4}, {"cm", 2.54}, {"in", 1}, {"px", 96}, {"pt", 72}} {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			div = u.perIn
			break
		}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, invalidRequest("invalid margin %q", s)
	}
	return n / div, nil
}

// printParams is the engine-facing page geometry. All lengths are in inches.
type printParams struct {
	paperWidth   float64
	paperHeight  float64
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
	landscape    bool
}

// buildPrintParams expects options already passed through normalizePage.
func buildPrintParams(p types.PageOptions) printParams {
	size, ok := paperSizes[p.Format]
	if !ok {
		size = paperSizes[types.FormatA4]
	}
	pp := printParams{
		paperWidth:  size.widthIn,
		paperHeight: size.heightIn,
		landscape:   p.Orientation == types.OrientationLandscape,
	}
	pp.marginTop, _ = parseLength(p.Margins.Top)
	pp.marginRight, _ = parseLength(p.Margins.Right)
	pp.marginBottom, _ = parseLength(p.Margins.Bottom)
	pp.marginLeft, _ = parseLength(p.Margins.Left)
	return pp
}

func mmToInches(mm float64) float64 { return mm / 25.4 }
