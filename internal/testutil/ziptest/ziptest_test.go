package ziptest

import "testing"

func TestBuildReadRoundTrip(t *testing.T) {
	data := Build(t, Dir("a.b"), File("a.b/c.txt", "hello"))
	Assert(t, data).
		Names("a.b/", "a.b/c.txt").
		HasEntry("a.b/").
		Content("a.b/c.txt", "hello").
		Contains("a.b/c.txt", "ell")
}
