package format

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "short", 10, "short"},
		{"exact length", "exactly10!", 10, "exactly10!"},
		{"long", "this is a very long string", 15, "this is a ve..."},
		{"empty", "", 5, ""},
		{"multibyte", "ünïcödé strings are fun", 10, "ünïcödé..."},
		{"max three", "abcdef", 3, "..."},
		{"max below ellipsis", "abcdef", 2, "ab"},
		{"negative max", "abcdef", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			if utf8.RuneCountInString(tt.in) > tt.max && tt.max >= 3 {
				assert.Equal(t, tt.max, utf8.RuneCountInString(got))
			}
		})
	}
}

func TestFirstLines(t *testing.T) {
	assert.Equal(t, "", FirstLines("a\nb", 0))
	assert.Equal(t, "one line", FirstLines("one line", 10))
	assert.Equal(t, "1\n2\n3", FirstLines("1\n2\n3\n4\n5", 3))
	assert.Equal(t, "a\nb", FirstLines("a\nb", 2))
}

func TestFileLink(t *testing.T) {
	assert.Equal(t,
		"\x1b]8;;file:///src/spec/a_spec.rb:10\aspec/a_spec.rb:10\x1b]8;;\a",
		FileLink("/src/spec/a_spec.rb:10", "spec/a_spec.rb:10"))

	assert.Equal(t,
		"\x1b]8;;file:///src/a_spec.rb:1\a/src/a_spec.rb:1\x1b]8;;\a",
		FileLink("/src/a_spec.rb:1", ""))
}
