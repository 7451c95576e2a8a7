// Package color canonicalises genre display colors and picks defaults.
package color

import (
	"fmt"
	"strings"
)

// named maps the CSS basic color keywords to hex.
//
//nolint:gochecknoglobals // Static lookup table
var named = map[string]string{
	"black": "#000000", "silver": "#C0C0C0", "gray": "#808080", "grey": "#808080",
	"white": "#FFFFFF", "maroon": "#800000", "red": "#FF0000", "purple": "#800080",
	"fuchsia": "#FF00FF", "green": "#008000", "lime": "#00FF00", "olive": "#808000",
	"yellow": "#FFFF00", "navy": "#000080", "blue": "#0000FF", "teal": "#008080",
	"aqua": "#00FFFF", "orange": "#FFA500",
}

// Normalize returns s as "#RRGGBB". It accepts "#rgb", "#rrggbb", the same
// without the hash, and CSS basic color names. ok is false for anything else.
func Normalize(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := named[s]; ok {
		return hex, true
	}
	s = strings.TrimPrefix(s, "#")
	if !isHex(s) {
		return "", false
	}
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return "", false
	}
	return "#" + strings.ToUpper(s), true
}

func isHex(s string) bool {
	for i := range len(s) {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return s != ""
}

// ForName derives a stable color from a genre name so a genre created
// without one always gets the same badge color.
func ForName(name string) string {
	h := uint32(2166136261)
	for _, c := range strings.ToLower(name) {
		h ^= uint32(c)
		h *= 16777619
	}
	hue := float64(h % 360)

	r, g, b := hslToRGB(hue, 0.55, 0.55)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// hslToRGB converts h in [0,360), s and l in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}

	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q

	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
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
