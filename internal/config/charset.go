package config

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

const (
	CharsetASCII    = "ascii"
	CharsetKatakana = "katakana"
	CharsetBinary   = "binary"
	CharsetDigits   = "digits"
)

var namedCharsets = map[string]string{
	CharsetKatakana: "ｱｲｳｴｵｶｷｸｹｺｻｼｽｾｿﾀﾁﾂﾃﾄﾅﾆﾇﾈﾉﾊﾋﾌﾍﾎﾏﾐﾑﾒﾓﾔﾕﾖﾗﾘﾙﾚﾛﾜﾝ",
	CharsetBinary:   "01",
	CharsetDigits:   "0123456789",
}

// Charsets lists the named character sets.
func Charsets() []string {
	names := []string{CharsetASCII}
	for name := range namedCharsets {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

// Glyphs resolves a named set, or treats the value as a literal list of characters.
// Only printable runes occupying a single terminal cell are kept, so the same set
// renders on pixel canvases and character grids alike.
func Glyphs(name string) []rune {
	source, ok := namedCharsets[strings.ToLower(name)]
	if strings.EqualFold(name, CharsetASCII) {
		var sb strings.Builder
		for r := rune(0x21); r < 0x7f; r++ {
			sb.WriteRune(r)
		}
		source, ok = sb.String(), true
	}
	if !ok {
		source = name
	}

	seen := make(map[rune]bool)
	var out []rune
	for _, r := range source {
		if seen[r] || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			continue
		}
		if runewidth.RuneWidth(r) != 1 {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
