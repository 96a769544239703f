// Package uploads stores product image files on local disk under
// UPLOAD_DIR/products/{productID}/ and hands back the public URL for each
// saved file. Image transformation is out of scope.
package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var ErrUnsupportedType = errors.New("unsupported file type")

var allowedMIME = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/avif": "avif",
	"image/gif":  "gif",
}

type Storage struct {
	BaseDir string // e.g. "uploads"
	MaxSize int64  // per file, bytes
}

func (s *Storage) productDir(productID int64) string {
	return filepath.Join(s.BaseDir, "products", strconv.FormatInt(productID, 10))
}

// PublicURL is where the static file server exposes the saved file.
func PublicURL(productID int64, filename string) string {
	return fmt.Sprintf("/uploads/products/%d/%s", productID, filename)
}

// Filename builds a collision-resistant name: unix-millis + 16 random bytes.
func Filename(ext string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%d_%s.%s", time.Now().UnixMilli(), hex.EncodeToString(b), ext)
}

// SniffExt returns the file extension for the content, or ErrUnsupportedType.
// Detection uses content sniffing, not the client-supplied header.
func SniffExt(head []byte) (string, error) {
	ct := http.DetectContentType(head)
	ext, ok := allowedMIME[ct]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ext, nil
}

// Save writes one uploaded file and returns its public URL. The reader is
// limited to MaxSize; oversized input fails after the limit is hit.
func (s *Storage) Save(productID int64, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]

	ext, err := SniffExt(head)
	if err != nil {
		return "", err
	}

	dir := s.productDir(productID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := Filename(ext)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(head); err != nil {
		os.Remove(path)
		return "", err
	}
	limited := io.LimitReader(r, s.MaxSize-int64(len(head)))
	if _, err := io.Copy(f, limited); err != nil {
		os.Remove(path)
		return "", err
	}
	return PublicURL(productID, name), nil
}

// Remove deletes a stored file given its public URL. A missing file is not an
// error; the DB row is the authoritative record.
func (s *Storage) Remove(productID int64, url string) error {
	name := filepath.Base(url)
	err := os.Remove(filepath.Join(s.productDir(productID), name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes the whole directory for a product.
func (s *Storage) RemoveAll(productID int64) error {
	return os.RemoveAll(s.productDir(productID))
}
