package storage

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(body)
	w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestSaveAndRemove(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}

	stored, err := d.Save(fileHeader(t, "report.pdf", "application/pdf", []byte("%PDF-1.4")), "maintenance", "maintenance")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(stored.FileName, "maintenance-") || filepath.Ext(stored.FileName) != ".pdf" {
		t.Errorf("unexpected stored name %q", stored.FileName)
	}
	if stored.FilePath != "uploads/maintenance/"+stored.FileName {
		t.Errorf("FilePath = %q", stored.FilePath)
	}
	if stored.Size != int64(len("%PDF-1.4")) {
		t.Errorf("Size = %d", stored.Size)
	}

	path, ok := d.Find(stored.FileName, "purchase-orders", "maintenance")
	if !ok {
		t.Fatal("stored file not found")
	}

	if err := d.Remove("maintenance", stored.FileName); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Remove")
	}
	if err := d.Remove("maintenance", stored.FileName); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}

func TestSaveRejects(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 4)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, file, ctype string
		body              []byte
		want              error
	}{
		{"too large", "a.txt", "text/plain", []byte("12345"), ErrFileTooLarge},
		{"executable", "a.exe", "application/octet-stream", []byte("MZ"), ErrFileTypeRejected},
		{"mime mismatch", "a.png", "application/x-sh", []byte("x"), ErrFileTypeRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Save(fileHeader(t, tt.file, tt.ctype, tt.body), "maintenance", "m")
			if err != tt.want {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	d := &Disk{Root: t.TempDir()}
	for _, name := range []string{"../secret", "a/b.txt", ".env", ""} {
		if _, err := d.Path("maintenance", name); err != ErrInvalidName {
			t.Errorf("Path(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

type failingClose struct{ *os.File }

func (f failingClose) Close() error {
	f.File.Close()
	return errors.New("disk full")
}

func TestSaveReportsCloseFailure(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}

	orig := createFile
	createFile = func(path string) (io.WriteCloser, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		return failingClose{f}, nil
	}
	t.Cleanup(func() { createFile = orig })

	if _, err := d.Save(fileHeader(t, "notes.txt", "text/plain", []byte("hello")), "maintenance", "m"); err == nil {
		t.Fatal("Save succeeded although the file could not be closed")
	}
	entries, _ := os.ReadDir(filepath.Join(d.Root, "maintenance"))
	if len(entries) != 0 {
		t.Errorf("%d files left behind after a failed save", len(entries))
	}
}
