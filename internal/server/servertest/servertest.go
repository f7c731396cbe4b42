// Package servertest drives the full API against an in-memory database.
package servertest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"bizops-backend/internal/cache"
	"bizops-backend/internal/server"
	"bizops-backend/internal/storage"
	"bizops-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

type Env struct {
	App   *fiber.App
	Files *storage.Disk
}

// New migrates a fresh database and builds the app with a memory cache and a temp upload dir.
func New(t *testing.T) *Env {
	t.Helper()
	testutil.SetupDB(t)
	cfg := testutil.Config(t)

	files, err := storage.NewDisk(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		t.Fatal(err)
	}
	return &Env{App: server.New(cfg, cache.NewMemoryStore(), files), Files: files}
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v and fails the test on error.
func (r Response) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s: %v", r.Body, err)
	}
}

func (r Response) Message(t *testing.T) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	r.Decode(t, &body)
	return body.Message
}

// JSON sends body (nil for none) as application/json.
func (e *Env) JSON(t *testing.T, method, path, token string, body any) Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, req, token)
}

// Upload is one file part of a multipart request.
type Upload struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Multipart sends fields and files as multipart/form-data.
func (e *Env) Multipart(t *testing.T, method, path, token string, fields map[string]string, files ...Upload) Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
		h.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.Data)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, token)
}

func (e *Env) do(t *testing.T, req *http.Request, token string) Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := e.App.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: b}
}
