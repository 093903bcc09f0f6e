package summary

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
)

// Highlight colors source written in lang (e.g. "json") for a terminal with
// the given color profile. Profiles without color get the source unchanged.
func Highlight(source, lang string, profile colorprofile.Profile) string {
	var name string
	switch profile {
	case colorprofile.TrueColor:
		name = "terminal16m"
	case colorprofile.ANSI256:
		name = "terminal256"
	case colorprofile.ANSI:
		name = "terminal16"
	default:
		return source
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := formatters.Get(name)
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}
	return strings.TrimRight(buf.String(), "\n")
}
