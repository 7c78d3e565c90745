package storage

import (
	"testing"
	"time"
)

func TestBuildImageKey(t *testing.T) {
	now := time.UnixMilli(1717171717171)
	key, err := BuildImageKey("rapidquestimages", "banner.png", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "rapidquestimages/1717171717171_banner.png"
	if key != expected {
		t.Fatalf("expected %s, got %s", expected, key)
	}
}

func TestBuildImageKeyStripsDirectories(t *testing.T) {
	now := time.UnixMilli(42)
	cases := map[string]string{
		"../../etc/passwd.png":      "images/42_passwd.png",
		`C:\Users\me\logo.jpg`:      "images/42_logo.jpg",
		"  spaced name.gif  ":       "images/42_spaced name.gif",
		"nested/dir/hero..v2.webp":  "images/42_hero..v2.webp",
		"/absolute/path/footer.png": "images/42_footer.png",
	}
	for input, expected := range cases {
		key, err := BuildImageKey("/images/", input, now)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
		if key != expected {
			t.Errorf("%q: expected %s, got %s", input, expected, key)
		}
	}
}

func TestBuildImageKeyNormalizesUnicode(t *testing.T) {
	now := time.UnixMilli(7)
	decomposed := "cafe\u0301.png"
	key, err := BuildImageKey("img", decomposed, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "img/7_caf\u00e9.png" {
		t.Fatalf("expected NFC composed name, got %q", key)
	}
}

func TestBuildImageKeyRejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "/", "..", "dir/.."} {
		if _, err := BuildImageKey("img", name, time.Now()); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestBuildImageKeyRejectsTraversalPrefix(t *testing.T) {
	if _, err := BuildImageKey("img/../secret", "a.png", time.Now()); err == nil {
		t.Fatal("expected error for traversal prefix")
	}
}

func TestBuildImageKeyWithoutPrefix(t *testing.T) {
	key, err := BuildImageKey("", "a.png", time.UnixMilli(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "5_a.png" {
		t.Fatalf("expected bare key, got %s", key)
	}
}

func TestContentTypeAllowed(t *testing.T) {
	cases := []struct {
		contentType string
		allowed     []string
		want        bool
	}{
		{"image/png", []string{"image/*"}, true},
		{"IMAGE/JPEG; charset=binary", []string{"image/*"}, true},
		{"application/pdf", []string{"image/*"}, false},
		{"image/png", []string{"image/jpeg", "image/png"}, true},
		{"image/gif", []string{"image/jpeg", "image/png"}, false},
		{"text/plain", []string{"*"}, true},
		{"imagex/png", []string{"image/*"}, false},
		{"image/png", nil, false},
	}
	for _, tc := range cases {
		if got := ContentTypeAllowed(tc.contentType, tc.allowed); got != tc.want {
			t.Errorf("ContentTypeAllowed(%q, %v) = %v, want %v", tc.contentType, tc.allowed, got, tc.want)
		}
	}
}
