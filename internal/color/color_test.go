package color

import (
	"errors"
	"math"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#1F4E79", RGB{0x1F, 0x4E, 0x79}, false},
		{"#ffffff", RGB{255, 255, 255}, false},
		{"#000000", RGB{}, false},
		{"1F4E79", RGB{}, true},
		{"#1F4E7", RGB{}, true},
		{"#GGGGGG", RGB{}, true},
		{"", RGB{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidHexFormat) {
			t.Errorf("ParseHexColor(%q) error = %v, want ErrInvalidHexFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		" #1f4e79 ": "#1F4E79",
		"#ABCDEF":   "#ABCDEF",
		"red":       "",
		"#12345":    "",
		"<#123456>": "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContrastRatio(t *testing.T) {
	black, white := RGB{}, RGB{255, 255, 255}
	if got := ContrastRatio(black, white); math.Abs(got-21) > 1e-9 {
		t.Errorf("black/white = %v, want 21", got)
	}
	if got := ContrastRatio(white, black); math.Abs(got-21) > 1e-9 {
		t.Errorf("ratio must be symmetric, got %v", got)
	}
	if got := ContrastRatio(white, white); got != 1 {
		t.Errorf("white/white = %v, want 1", got)
	}
}

func TestValidateNodeColor(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"#1F4E79", nil},
		{"#8B1A1A", nil},
		{"#1E5631", nil},
		{"#FFFF00", ErrInsufficientContrast},
		{"#EEEEEE", ErrInsufficientContrast},
		{"yellow", ErrInvalidHexFormat},
	}
	for _, tt := range tests {
		_, err := ValidateNodeColor(tt.in)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ValidateNodeColor(%q) unexpected error %v", tt.in, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateNodeColor(%q) error = %v, want %v", tt.in, err, tt.wantErr)
		}
	}
}
