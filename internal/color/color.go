// Package color validates the display colors attached to graph nodes.
// Colors are #RRGGBB strings and must keep white labels readable, which is
// checked with the WCAG 2.1 contrast formula.
package color

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var (
	ErrInvalidHexFormat     = errors.New("invalid hex color format, expected #RRGGBB")
	ErrInsufficientContrast = errors.New("insufficient contrast ratio, minimum 4.5:1 required for WCAG AA")
)

// MinContrastAA is the WCAG AA minimum for normal text.
const MinContrastAA = 4.5

// LabelColor is the text color drawn on top of node colors.
const LabelColor = "#FFFFFF"

// RGB is a color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// IsValidHexColor reports whether s is in #RRGGBB form.
func IsValidHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// Normalize trims s and upper-cases its hex digits. It returns "" when s is
// not a valid color.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if !IsValidHexColor(s) {
		return ""
	}
	return strings.ToUpper(s)
}

// ParseHexColor parses a #RRGGBB string.
func ParseHexColor(s string) (RGB, error) {
	if !IsValidHexColor(s) {
		return RGB{}, fmt.Errorf("%w: got %q", ErrInvalidHexFormat, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %v", ErrInvalidHexFormat, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func channel(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func relativeLuminance(c RGB) float64 {
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

// ContrastRatio returns the WCAG contrast ratio of a and b, from 1 to 21.
func ContrastRatio(a, b RGB) float64 {
	l1, l2 := relativeLuminance(a), relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// ValidateNodeColor checks that s is a valid color on which LabelColor text
// meets MinContrastAA. It returns the measured ratio.
func ValidateNodeColor(s string) (float64, error) {
	bg, err := ParseHexColor(s)
	if err != nil {
		return 0, err
	}
	label, _ := ParseHexColor(LabelColor)

	ratio := ContrastRatio(label, bg)
	if ratio < MinContrastAA {
		return ratio, fmt.Errorf("%w: %s got %.2f:1", ErrInsufficientContrast, s, ratio)
	}
	return ratio, nil
}
