package mediaurl

import "testing"

func TestBlobBuildsCanonicalURL(t *testing.T) {
	if got := Blob("http://localhost:8080", "blb_abc"); got != "http://localhost:8080/media/blb_abc" {
		t.Fatalf("Blob() = %q", got)
	}
	if got := Blob("http://localhost:8080/", "blb_abc"); got != "http://localhost:8080/media/blb_abc" {
		t.Fatalf("Blob() with trailing slash = %q", got)
	}
	if got := Blob("", "blb_abc"); got != "/media/blb_abc" {
		t.Fatalf("Blob() with empty base = %q", got)
	}
}

func TestParseBlobIDRoundTrip(t *testing.T) {
	id, ok := ParseBlobID(Blob("http://localhost:8080", "blb_abc"))
	if !ok || id != "blb_abc" {
		t.Fatalf("ParseBlobID() = %q, %v, want blb_abc, true", id, ok)
	}

	id, ok = ParseBlobID("/media/blb_xyz")
	if !ok || id != "blb_xyz" {
		t.Fatalf("ParseBlobID(relative) = %q, %v, want blb_xyz, true", id, ok)
	}
}

func TestParseBlobIDRejectsForeignURLsAndPaths(t *testing.T) {
	for _, raw := range []string{"", "http://example.com/other/x", "/media/", "/media/a/b"} {
		if _, ok := ParseBlobID(raw); ok {
			t.Fatalf("ParseBlobID(%q) = true, want false", raw)
		}
	}
}
