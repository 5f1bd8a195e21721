package code_test

import (
	"testing"

	"github.com/schemini/refsync/pkg/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 🧪 TestResolve tests filename tokenization
func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		raw        string
		iPrefixed  bool
		normalized string
	}{
		{
			name:       "plain_code_with_suffix",
			fileName:   "A100_old.txt",
			raw:        "A100",
			normalized: "A100",
		},
		{
			name:       "code_with_space_separator",
			fileName:   "B200 rev3.pdf",
			raw:        "B200",
			normalized: "B200",
		},
		{
			name:       "code_with_dash_separator",
			fileName:   "C300-v2.txt",
			raw:        "C300",
			normalized: "C300",
		},
		{
			name:       "code_only",
			fileName:   "D400",
			raw:        "D400",
			normalized: "D400",
		},
		{
			name:       "lowercase_is_uppercased",
			fileName:   "a100.txt",
			raw:        "a100",
			normalized: "A100",
		},
		{
			name:       "i_dash_prefix",
			fileName:   "I-B200.txt",
			raw:        "I-B200",
			iPrefixed:  true,
			normalized: "B200",
		},
		{
			name:       "i_underscore_prefix",
			fileName:   "I_B200.txt",
			raw:        "I_B200",
			iPrefixed:  true,
			normalized: "B200",
		},
		{
			name:       "lowercase_i_prefix",
			fileName:   "i-b200.txt",
			raw:        "i-b200",
			iPrefixed:  true,
			normalized: "B200",
		},
		{
			name:       "i_without_marker_is_part_of_code",
			fileName:   "INDEX.txt",
			raw:        "INDEX",
			normalized: "INDEX",
		},
		{
			name:       "bare_i_before_separator",
			fileName:   "I-.txt",
			raw:        "I",
			normalized: "I",
		},
		{
			name:     "no_leading_alphanumeric",
			fileName: "_hidden.txt",
		},
		{
			name:     "empty_name",
			fileName: "",
		},
		{
			name:     "dot_file",
			fileName: ".gitignore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := code.Resolve(tt.fileName)
			assert.Equal(t, tt.raw, tok.Raw, "raw")
			assert.Equal(t, tt.iPrefixed, tok.IPrefixed, "iPrefixed")
			assert.Equal(t, tt.normalized, tok.Normalized, "normalized")
			assert.Equal(t, tt.normalized == "", tok.IsZero(), "IsZero")
		})
	}
}

// 🧪 TestResolveInvariance tests that normalization is stable under case
// changes and under adding or removing the I-prefix marker.
func TestResolveInvariance(t *testing.T) {
	variants := []string{
		"B200.txt",
		"b200.txt",
		"I-B200.txt",
		"I_b200.txt",
		"i-B200.txt",
		"i_b200.txt",
	}

	want := code.Resolve(variants[0]).Normalized
	require.NotEmpty(t, want)

	for _, v := range variants {
		assert.Equal(t, want, code.Resolve(v).Normalized, "variant %q", v)
	}
}

// 🧪 TestNormalize tests external code list normalization
func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"d400", "D400"},
		{"  D400  ", "D400"},
		{"I-D400", "D400"},
		{"i_d400", "D400"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, code.Normalize(tt.in), "input %q", tt.in)
	}
}

// 🧪 TestNormalizeMatchesResolve tests that a filter built from raw code
// strings lands on the same keys the indexer produces.
func TestNormalizeMatchesResolve(t *testing.T) {
	assert.Equal(t, code.Resolve("I-D400_v2.txt").Normalized, code.Normalize("d400"))
	assert.Equal(t, code.Resolve("d400.pdf").Normalized, code.Normalize("I-D400"))
}
