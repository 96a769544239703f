package uploads

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestSniffExt(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		ext  string
		ok   bool
	}{
		{"png", pngHeader, "png", true},
		{"gif", []byte("GIF89a......"), "gif", true},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0}, "jpg", true},
		{"text", []byte("hello world"), "", false},
		{"pdf", []byte("%PDF-1.4"), "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ext, err := SniffExt(c.head)
			if c.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if ext != c.ext {
					t.Errorf("ext = %q, want %q", ext, c.ext)
				}
				return
			}
			if !errors.Is(err, ErrUnsupportedType) {
				t.Errorf("got %v, want ErrUnsupportedType", err)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	re := regexp.MustCompile(`^\d+_[0-9a-f]{32}\.png$`)
	a, b := Filename("png"), Filename("png")
	if !re.MatchString(a) {
		t.Errorf("unexpected filename shape: %s", a)
	}
	if a == b {
		t.Error("two filenames collided")
	}
}

func TestSaveAndRemove(t *testing.T) {
	s := &Storage{BaseDir: t.TempDir(), MaxSize: 1 << 20}

	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0xab}, 2048)...)
	url, err := s.Save(7, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/products/7/") {
		t.Errorf("unexpected url: %s", url)
	}

	path := filepath.Join(s.BaseDir, "products", "7", filepath.Base(url))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Errorf("stored %d bytes, want %d", len(data), len(body))
	}

	if err := s.Remove(7, url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}
	// removing twice is fine
	if err := s.Remove(7, url); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestSaveRejectsNonImage(t *testing.T) {
	s := &Storage{BaseDir: t.TempDir(), MaxSize: 1 << 20}
	_, err := s.Save(1, strings.NewReader("just some text, definitely not an image"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("got %v, want ErrUnsupportedType", err)
	}
	// nothing may be left behind
	entries, _ := os.ReadDir(filepath.Join(s.BaseDir, "products", "1"))
	if len(entries) != 0 {
		t.Errorf("rejected upload left %d files", len(entries))
	}
}
