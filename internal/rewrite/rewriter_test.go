package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteHref(t *testing.T) {
	r := New()
	tests := []struct {
		in, want string
	}{
		{"images/a.b.png", "images/a_b.png"},
		{"../topics/a.b.c.dita#sec.1", "../topics/a_b_c.dita#sec_1"},
		{"x.y/z.dita", "x_y/z.dita"},
		{"a.b.c", "a_b_c"},
		{"page.v2.HTML", "page_v2.HTML"},
		{"noext", "noext"},
		{"#top.1", "#top_1"},
		{"a.dita#x#y.z", "a.dita#x#y_z"},
		{"", ""},
		{"/", "/"},
		{"dir//f.x.dita", "dir//f_x.dita"},
		{"topics.dita/a.dita", "topics.dita/a.dita"},
		{"v1.ditamap/a.b.xml", "v1.ditamap/a_b.xml"},
		{"../../up.one/f.xml", "../__/up_one/f.xml"},
		{"https://example.com/a.b.html", "https://example_com/a_b.html"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.RewriteHref(tt.in))
		})
	}
}

func TestRewriteHref_ExtensionAware(t *testing.T) {
	r := New(WithDirectoryMode(DirectoryExtensionAware))
	tests := []struct {
		in, want string
	}{
		{"../topics/a.b.c.dita#sec.1", "../topics/a_b_c.dita#sec_1"},
		{"x.y/z.dita", "x_y/z.dita"},
		{"../../up.one/f.xml", "../../up_one/f.xml"},
		{"./a.b/c.dita", "./a_b/c.dita"},
		{"my_ditamap/c.dita", "my_ditamap/c.dita"},
		{"pkg.v1.xml/c.dita", "pkg_v1.xml/c.dita"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.RewriteHref(tt.in))
		})
	}
	assert.Equal(t, "extension_aware", r.Mode().String())
}

func TestRewriteHref_LegacyFixupIsLiteral(t *testing.T) {
	r := New()
	// the legacy rule restores any "_dita" sequence, including one already present
	assert.Equal(t, "my.ditamap/c.dita", r.RewriteHref("my_ditamap/c.dita"))
	assert.Equal(t, "legacy", r.Mode().String())
}

func TestRewriteHref_CustomExtensions(t *testing.T) {
	r := New(WithExtensions(NewExtensionSet(".md")))
	assert.Equal(t, "docs/read_me.md", r.RewriteHref("docs/read.me.md"))

	exact := New(WithExtensions(NewExactExtensionSet()))
	assert.Equal(t, "a_b_dita", exact.RewriteHref("a.b.dita"))
}

func TestRewriteID(t *testing.T) {
	assert.Equal(t, "a_b_c", New().RewriteID("a.b.c"))
	assert.Equal(t, "", New().RewriteID(""))
}

func TestRewriteContent(t *testing.T) {
	r := New()
	tests := []struct {
		name, in, want string
	}{
		{
			name: "id and href",
			in:   `<topic id="a.b.c"><xref href="../topics/a.b.c.dita#sec.1"/></topic>`,
			want: `<topic id="a_b_c"><xref href="../topics/a_b_c.dita#sec_1"/></topic>`,
		},
		{
			name: "multiple ids independently",
			in:   `<p id="x.1"/><p id="y.2.3"/>`,
			want: `<p id="x_1"/><p id="y_2_3"/>`,
		},
		{
			name: "image href",
			in:   `<image href="images/a.b.png"/>`,
			want: `<image href="images/a_b.png"/>`,
		},
		{
			name: "unterminated attribute is left alone",
			in:   `<a href="a.b.dita`,
			want: `<a href="a.b.dita`,
		},
		{
			name: "textual match includes prefixed attributes",
			in:   `<t xml:id="n.1" data-href="q.r"/>`,
			want: `<t xml:id="n_1" data-href="q_r"/>`,
		},
		{
			name: "single quotes are not matched",
			in:   `<a href='a.b.dita' id='x.y'>`,
			want: `<a href='a.b.dita' id='x.y'>`,
		},
		{
			name: "empty",
			in:   ``,
			want: ``,
		},
		{
			name: "surrounding bytes untouched",
			in:   "v1.2 text. href=\"a.b.dita\" more.dots",
			want: "v1.2 text. href=\"a_b.dita\" more.dots",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(r.Rewrite([]byte(tt.in))))
		})
	}
}

func TestRewriteContent_BinaryPassesThrough(t *testing.T) {
	in := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 'i', 'd', '=', '"', 'a', '.', 'b', '"', 0xfe}
	out := New().Rewrite(in)
	want := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 'i', 'd', '=', '"', 'a', '_', 'b', '"', 0xfe}
	assert.Equal(t, want, out)
	assert.Equal(t, byte('.'), in[11], "input slice must not be modified")
}

func TestRewriteContent_FixedPoint(t *testing.T) {
	inputs := []string{
		`<topic id="a.b.c"><xref href="../topics/a.b.c.dita#sec.1"/></topic>`,
		`<a href="x.y/z.unknown"/><a href="topics.dita/a.dita"/>`,
		`<a href="../../deep.dir/f.g.xml#a.b"/>`,
	}
	for _, mode := range []DirectoryMode{DirectoryLegacy, DirectoryExtensionAware} {
		r := New(WithDirectoryMode(mode))
		for _, in := range inputs {
			once := r.Rewrite([]byte(in))
			assert.Equal(t, string(once), string(r.Rewrite(once)), "%s: %s", mode, in)
		}
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		isDir bool
		mode  DirectoryMode
		want  string
	}{
		{"plain file", "a.b.c.dita", false, DirectoryLegacy, "a_b_c.dita"},
		{"nested file", "topics.v1/a.b.dita", false, DirectoryLegacy, "topics_v1/a_b.dita"},
		{"unknown extension kept", "data/x.y.bin", false, DirectoryLegacy, "data/x_y.bin"},
		{"directory", "topics.v1/", true, DirectoryLegacy, "topics_v1/"},
		{"nested directory", "a.b/c.d/", true, DirectoryLegacy, "a_b/c_d/"},
		{"directory without slash", "a.b", true, DirectoryLegacy, "a_b"},
		{"legacy dita dir", "maps.dita/", true, DirectoryLegacy, "maps.dita/"},
		{"underscore dita dir kept", "my_dita/a.txt", false, DirectoryLegacy, "my_dita/a.txt"},
		{"underscore ditamap dir kept", "pub_ditamap/topics/a.b.dita", false, DirectoryLegacy, "pub_ditamap/topics/a_b.dita"},
		{"underscore dita dir with version", "x_dita.v1/", true, DirectoryLegacy, "x_dita_v1/"},
		{"aware dir keeps allowed ext", "pkg.v1.xml/", true, DirectoryExtensionAware, "pkg_v1.xml/"},
		{"no dots", "docs/readme", false, DirectoryLegacy, "docs/readme"},
		{"root dir", "/", true, DirectoryLegacy, "/"},
		{"empty", "", false, DirectoryLegacy, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(WithDirectoryMode(tt.mode))
			assert.Equal(t, tt.want, r.EntryName(tt.path, tt.isDir))
		})
	}
}

func TestEntryNameNeverAddsDots(t *testing.T) {
	r := New()
	for _, path := range []string{"my_dita/a.txt", "pub_ditamap/topics/a.b.dita", "x_dita.v1/sub_dita/", "a_dita_b/c_dita.xml"} {
		got := r.EntryName(path, strings.HasSuffix(path, "/"))
		assert.LessOrEqual(t, strings.Count(got, "."), strings.Count(path, "."), "%s -> %s", path, got)
	}
}

func TestEntryNameMatchesRewrittenHref(t *testing.T) {
	r := New()
	entry := r.EntryName("topics.v1/intro.part.dita", false)
	href := r.RewriteHref("topics.v1/intro.part.dita")
	assert.Equal(t, entry, href)
}
