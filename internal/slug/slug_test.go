package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases and hyphenates", in: "RoR Mug", want: "ror-mug"},
		{name: "strips punctuation", in: "Joe's", want: "joes"},
		{name: "collapses whitespace", in: "  big   sale  ", want: "big-sale"},
		{name: "transliterates chinese", in: "你好", want: "ni-hao"},
		{name: "transliterates diacritics", in: "Crème Brûlée", want: "creme-brulee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		occupied []string
		want     string
	}{
		{name: "no occupants uses base", base: "foo", occupied: nil, want: "foo"},
		{name: "exact occupant without suffix counts as zero", base: "foo", occupied: []string{"foo"}, want: "foo-1"},
		{name: "max suffix wins", base: "foo", occupied: []string{"foo", "foo-1", "foo-7", "foo-3"}, want: "foo-8"},
		{
			name: "textual prefix occupant folds into numbering",
			base: "foo",
			// "foo a" has no numeric suffix, so it occupies slot zero.
			occupied: []string{"foo a"},
			want:     "foo-1",
		},
		{name: "quotes preserved", base: "joe's", occupied: []string{"joe's"}, want: "joe's-1"},
		{name: "non-numeric tail ignored", base: "bar", occupied: []string{"bar-baz"}, want: "bar-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.base, tt.occupied))
		})
	}
}
