package entry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Level is the error-correction level of the encoded symbol.
type Level string

const (
	LevelLow      Level = "L"
	LevelMedium   Level = "M"
	LevelQuartile Level = "Q"
	LevelHigh     Level = "H"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelQuartile, LevelHigh:
		return true
	}
	return false
}

const (
	MaxLogoSize     = 40
	MaxBorderRadius = 50
)

// LogoURLPrefix is the only logo source the renderer draws. Remote URLs are
// never fetched.
const LogoURLPrefix = "data:image/"

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Style holds the appearance parameters of the rendered code.
type Style struct {
	FgColor      string `json:"fgColor"`
	BgColor      string `json:"bgColor"`
	Level        Level  `json:"level"`
	IncludeLogo  bool   `json:"includeLogo"`
	LogoURL      string `json:"logoUrl,omitempty"`
	LogoSize     int    `json:"logoSize"`     // percent of the code size
	BorderRadius int    `json:"borderRadius"` // percent of half the code size
}

// DefaultStyle is applied to new drafts.
func DefaultStyle() Style {
	return Style{
		FgColor:      "#000000",
		BgColor:      "#ffffff",
		Level:        LevelMedium,
		IncludeLogo:  false,
		LogoSize:     20,
		BorderRadius: 0,
	}
}

func (s Style) Validate() error {
	if !hexColor.MatchString(s.FgColor) {
		return ValidationError{Field: "style.fgColor", Message: "expected #rgb or #rrggbb"}
	}
	if !hexColor.MatchString(s.BgColor) {
		return ValidationError{Field: "style.bgColor", Message: "expected #rgb or #rrggbb"}
	}
	if !s.Level.Valid() {
		return ValidationError{Field: "style.level", Message: "expected one of L, M, Q, H"}
	}
	if s.LogoURL != "" && !strings.HasPrefix(s.LogoURL, LogoURLPrefix) {
		return ValidationError{Field: "style.logoUrl", Message: "logo must be an inline " + LogoURLPrefix + "... data URL"}
	}
	if s.LogoSize < 0 || s.LogoSize > MaxLogoSize {
		return ValidationError{Field: "style.logoSize", Message: fmt.Sprintf("must be between 0 and %d", MaxLogoSize)}
	}
	if s.BorderRadius < 0 || s.BorderRadius > MaxBorderRadius {
		return ValidationError{Field: "style.borderRadius", Message: fmt.Sprintf("must be between 0 and %d", MaxBorderRadius)}
	}
	return nil
}

// RGB decodes a validated #rgb or #rrggbb color.
func RGB(hex string) (r, g, b uint8, err error) {
	if !hexColor.MatchString(hex) {
		return 0, 0, 0, fmt.Errorf("invalid color %q", hex)
	}
	digits := hex[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
