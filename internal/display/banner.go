package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the banner art centred for the current terminal
// width, followed by a dimmed tagline when one is given.
func RenderBanner(tagline string) string {
	art := renderArt(termWidth())
	if tagline == "" {
		return art
	}
	return art + "\n" + BannerStyle.Render("  "+tagline) + "\n"
}

// renderArt centres banner.txt in width columns. The art is never scaled.
func renderArt(width int) string {
	lines := strings.Split(strings.TrimRight(bannerRaw, "\n"), "\n")
	if len(lines) == 0 {
		return ""
	}

	maxW := 0
	for _, l := range lines {
		maxW = max(maxW, len(l))
	}

	var b strings.Builder
	for _, l := range lines {
		pad := 0
		if width > maxW {
			pad = (width - maxW) / 2
		}
		if pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	return b.String()
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
