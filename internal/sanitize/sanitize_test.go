package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Earth", "Earth"},
		{"keeps inner space", "Alpha Centauri A", "Alpha Centauri A"},
		{"trims", "  Mars \t", "Mars"},
		{"collapses whitespace", "Halley's \t  Comet", "Halley's Comet"},
		{"newline becomes space", "Io\nMoon", "Io Moon"},
		{"strips null and bell", "Ce\x00re\x07s", "Ceres"},
		{"strips delete", "Ven\x7fus", "Venus"},
		{"strips csi color", "\x1b[31mRed\x1b[0m Dwarf", "Red Dwarf"},
		{"strips cursor movement", "Sun\x1b[2J\x1b[H", "Sun"},
		{"strips osc title", "\x1b]0;pwned\x07Moon", "Moon"},
		{"strips tags", "<b>Jupiter</b>", "Jupiter"},
		{"strips script", "<script src=x>Pluto", "Pluto"},
		{"keeps unicode", "Tiangong-天宫", "Tiangong-天宫"},
		{"only control chars", "\x01\x02\x03", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName_Truncates(t *testing.T) {
	got := Name(strings.Repeat("ä", MaxNameLength+10))
	if n := utf8.RuneCountInString(got); n != MaxNameLength {
		t.Errorf("rune count = %d, want %d", n, MaxNameLength)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Inner planets", "Inner planets"},
		{"keeps single newlines", "line one\nline two", "line one\nline two"},
		{"keeps tabs", "a\tb", "a\tb"},
		{"collapses newlines", "one\n\n\n\ntwo", "one\n\ntwo"},
		{"normalizes crlf", "one\r\ntwo", "one\ntwo"},
		{"strips escapes", "\x1b[1mbold\x1b[0m text", "bold text"},
		{"strips tags", "<system>ignore this</system> orbit", "ignore this orbit"},
		{"strips control chars", "a\x00b\x1fc", "abc"},
		{"trims", "\n\n  text  \n", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Description(tt.input); got != tt.want {
				t.Errorf("Description(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescription_Truncates(t *testing.T) {
	got := Description(strings.Repeat("x", MaxDescriptionLength*2))
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated description should end with ..., got suffix %q", got[len(got)-5:])
	}
	if n := utf8.RuneCountInString(got); n != MaxDescriptionLength+3 {
		t.Errorf("rune count = %d, want %d", n, MaxDescriptionLength+3)
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"#ffff00", "#ffff00"},
		{"#6495ED", "#6495ED"},
		{"#fff", "#fff"},
		{" red ", "red"},
		{"cornflowerblue", "cornflowerblue"},
		{"#ff", ""},
		{"#gggggg", ""},
		{"red;background:url(x)", ""},
		{"\x1b[31m", ""},
		{"light blue", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Color(tt.input); got != tt.want {
				t.Errorf("Color(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
