package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"readme", "readme"},
		{"a.dita", "a.dita"},
		{"a.b.c.dita", "a_b_c.dita"},
		{"v1.2.3.tar", "v1_2_3.tar"},
		{".hidden", ".hidden"},
		{"a..b", "a_.b"},
		{"trailing.", "trailing."},
		{".", "_"},
		{"...", "___"},
		{"a.b.UNKNOWN", "a_b.UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestNamePreservesExtension(t *testing.T) {
	for _, in := range []string{"a.b", "x.y.z.png", "many.many.dots.here.xml", "a_b.c.d"} {
		got := Name(in)
		ext := in[strings.LastIndexByte(in, '.'):]
		assert.True(t, strings.HasSuffix(got, ext), "%s -> %s must keep %s", in, got, ext)
		assert.NotContains(t, strings.TrimSuffix(got, ext), ".", "%s -> %s", in, got)
	}
}

func TestNameIsFixedPoint(t *testing.T) {
	for _, in := range []string{"a.b.c.dita", "...", "plain", "x.y"} {
		once := Name(in)
		assert.Equal(t, once, Name(once), in)
	}
}
