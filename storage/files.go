package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"quetzal/dto"
)

const defaultContentType = "application/pdf"

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid paper id or file name")
)

// FileStore keeps uploaded files under Root/<paperID>/<name>.
type FileStore struct {
	Root string
}

func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &FileStore{Root: abs}, nil
}

// ValidName rejects names that could leave the paper's directory.
func ValidName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

// uploadExt keeps the client's extension only when it is plain lowercase
// alphanumerics, falling back to .pdf.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !safeExt.MatchString(ext) {
		return ".pdf"
	}
	return ext
}

func (s *FileStore) paperDir(paperID string) (string, error) {
	if err := ValidName(paperID); err != nil {
		return "", err
	}
	return filepath.Join(s.Root, paperID), nil
}

// Save writes the upload as <baseName><ext>, ext taken from the client's file
// name, replacing any earlier file of that name.
func (s *FileStore) Save(paperID, baseName string, fh *multipart.FileHeader) (*dto.FileInfo, error) {
	dir, err := s.paperDir(paperID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create paper dir: %w", err)
	}

	name := baseName + uploadExt(fh.Filename)
	dest := filepath.Join(dir, name)

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	size, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}

	info := &dto.FileInfo{
		Filename:     name,
		OriginalName: fh.Filename,
		Size:         size,
		Path:         dest,
	}
	if mt, err := mimetype.DetectFile(dest); err == nil {
		info.MimeType = mt.String()
	}
	return info, nil
}

// DeleteAll removes the paper's directory and returns its path.
func (s *FileStore) DeleteAll(paperID string) (string, error) {
	dir, err := s.paperDir(paperID)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !fi.IsDir() {
		return "", ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to delete %s: %w", dir, err)
	}
	return dir, nil
}

// Open returns the stored file for reading. The caller closes it.
func (s *FileStore) Open(paperID, filename string) (*os.File, os.FileInfo, error) {
	dir, err := s.paperDir(paperID)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	if ValidName(filename) != nil {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}
	return f, fi, nil
}

// ContentType picks the download Content-Type from the extension, falling
// back to sniffing the content, then to PDF.
func ContentType(r io.ReadSeeker, filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	if r != nil {
		mt, err := mimetype.DetectReader(r)
		_, seekErr := r.Seek(0, io.SeekStart)
		if err == nil && seekErr == nil && !mt.Is("application/octet-stream") {
			return mt.String()
		}
	}
	return defaultContentType
}
