// Package storage keeps uploaded attachments on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge     = errors.New("file is too large")
	ErrFileTypeRejected = errors.New("only images and documents are allowed")
	ErrInvalidName      = errors.New("invalid file name")
)

var allowedTypes = regexp.MustCompile(`jpeg|jpg|png|gif|pdf|doc|docx|xls|xlsx|txt|msword|officedocument|ms-excel|plain`)

var allowedExt = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".pdf": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".txt": true,
}

// Disk stores files under Root/<sub>/ and reports paths as "uploads/<sub>/<name>".
type Disk struct {
	Root    string
	MaxSize int64
}

type StoredFile struct {
	FileName     string
	OriginalName string
	FilePath     string // relative, served back through /api/files
	Size         int64
	MimeType     string
}

func NewDisk(root string, maxSize int64) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir could not be created: %w", err)
	}
	return &Disk{Root: root, MaxSize: maxSize}, nil
}

// Save copies an uploaded multipart file to Root/sub as "<prefix>-<uuid><ext>".
func (d *Disk) Save(fh *multipart.FileHeader, sub, prefix string) (*StoredFile, error) {
	if d.MaxSize > 0 && fh.Size > d.MaxSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mimeType := fh.Header.Get("Content-Type")
	if !allowedExt[ext] || !allowedTypes.MatchString(strings.ToLower(mimeType)) {
		return nil, ErrFileTypeRejected
	}

	dir := filepath.Join(d.Root, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("folder could not be created: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("upload could not be opened: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext)
	written, err := writeFile(filepath.Join(dir, name), src)
	if err != nil {
		return nil, err
	}

	return &StoredFile{
		FileName:     name,
		OriginalName: fh.Filename,
		FilePath:     "uploads/" + sub + "/" + name,
		Size:         written,
		MimeType:     mimeType,
	}, nil
}

var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeFile copies src to path. A failed copy or close leaves no file behind.
func writeFile(path string, src io.Reader) (int64, error) {
	dst, err := createFile(path)
	if err != nil {
		return 0, fmt.Errorf("file could not be created: %w", err)
	}

	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("file could not be written: %w", err)
	}
	return written, nil
}

// Remove deletes a file saved by Save; a missing file is not an error.
func (d *Disk) Remove(sub, fileName string) error {
	path, err := d.Path(sub, fileName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path resolves fileName inside Root/sub, rejecting anything that escapes it.
func (d *Disk) Path(sub, fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(d.Root, sub, fileName), nil
}

// Find looks fileName up in each sub-folder and returns the first match.
func (d *Disk) Find(fileName string, subs ...string) (string, bool) {
	for _, sub := range subs {
		path, err := d.Path(sub, fileName)
		if err != nil {
			return "", false
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// SaveAll saves every upload or none: a failure removes the files already written.
func (d *Disk) SaveAll(fhs []*multipart.FileHeader, sub, prefix string) ([]*StoredFile, error) {
	stored := make([]*StoredFile, 0, len(fhs))
	for _, fh := range fhs {
		f, err := d.Save(fh, sub, prefix)
		if err != nil {
			d.RemoveAll(sub, stored)
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		stored = append(stored, f)
	}
	return stored, nil
}

// RemoveAll is the cleanup path for saved files whose DB rows were not written.
func (d *Disk) RemoveAll(sub string, files []*StoredFile) {
	for _, f := range files {
		_ = d.Remove(sub, f.FileName)
	}
}

// UserError reports whether err is a rejected upload rather than an I/O failure.
func UserError(err error) bool {
	return errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrFileTypeRejected) || errors.Is(err, ErrInvalidName)
}
