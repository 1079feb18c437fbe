package urlstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Token
	}{
		{
			name: "nested commas",
			raw:  "bg,groupA(1:80,0:50,1),groupB(0,1:55)",
			want: []Token{
				{Name: "bg"},
				{Name: "groupA", Content: "1:80,0:50,1", Grouped: true},
				{Name: "groupB", Content: "0,1:55", Grouped: true},
			},
		},
		{
			name: "empty entries dropped",
			raw:  ",bg,, g() ,",
			want: []Token{{Name: "bg"}, {Name: "g", Grouped: true}},
		},
		{
			name: "unclosed group",
			raw:  "bg,g(1,0",
			want: []Token{{Name: "bg"}, {Name: "g", Content: "1,0", Grouped: true}},
		},
		{
			name: "stray close",
			raw:  "a),b",
			want: []Token{{Name: "a)"}, {Name: "b"}},
		},
		{name: "empty", raw: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.raw))
		})
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	raw := "bg,groupA(1:80,0:50,1),groupB(0,1:55)"
	var out []string
	for _, tok := range Tokenize(raw) {
		out = append(out, tok.String())
	}
	assert.Equal(t, []string{"bg", "groupA(1:80,0:50,1)", "groupB(0,1:55)"}, out)
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		in   string
		name string
		pct  int
	}{
		{"roads", "roads", 100},
		{"roads:80", "roads", 80},
		{"roads:80.7", "roads", 80},
		{"roads:abc", "roads", 100},
		{"1:0", "1", 0},
		{"roads:5000", "roads", 1000},
		{"roads:99999999999999999999", "roads", 1000},
		{"roads:-1e30", "roads", -1000},
		{"roads:+Inf", "roads", 1000},
	}
	for _, tt := range tests {
		name, pct := parseEntry(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.pct, pct, tt.in)
	}
}

func TestOpacitySuffix(t *testing.T) {
	assert.Equal(t, "", opacitySuffix(1))
	assert.Equal(t, "", opacitySuffix(0.999))
	assert.Equal(t, ":55", opacitySuffix(0.55))
	assert.Equal(t, ":0", opacitySuffix(0))
}
