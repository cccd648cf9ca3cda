package colors

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Error     string
	Gradient  []string
}

func DefaultPalette() *Palette {
	return &Palette{
		Primary:   "#8BA4E8",
		Secondary: "#E8A4C8",
		Accent:    "#B8A8E8",
		Dim:       "#6272A4",
		Error:     "#FF6B6B",
		Gradient:  GenerateGradient("#8BA4E8", "#E8A4C8", 20),
	}
}

func parseHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}

// GenerateGradient interpolates in LuvLCh so hues take the short way round.
func GenerateGradient(startHex string, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}

	start := parseHex(startHex)
	end := parseHex(endHex)

	gradient := make([]string, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		gradient[i] = start.BlendLuvLCh(end, t).Clamped().Hex()
	}
	gradient[0] = start.Hex()
	gradient[steps-1] = end.Hex()
	return gradient
}

func BlendColors(hex1 string, hex2 string, t float64) string {
	if t <= 0 {
		return hex1
	}
	if t >= 1 {
		return hex2
	}
	return parseHex(hex1).BlendLuv(parseHex(hex2), t).Clamped().Hex()
}

// AdjustBrightness scales lightness by factor, 1 leaves the color alone.
func AdjustBrightness(hex string, factor float64) string {
	if factor == 1 {
		return hex
	}
	h, c, l := parseHex(hex).Hcl()
	l *= factor
	if l > 1 {
		l = 1
	}
	return colorful.Hcl(h, c, l).Clamped().Hex()
}

func RenderGradientText(text string, gradient []string, bold bool) string {
	if len(text) == 0 {
		return ""
	}
	if len(gradient) == 0 {
		return text
	}

	runes := []rune(text)
	var result strings.Builder

	for i, r := range runes {
		colorIdx := 0
		if len(runes) > 1 {
			colorIdx = i * (len(gradient) - 1) / (len(runes) - 1)
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[colorIdx]))
		if bold {
			style = style.Bold(true)
		}
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}
