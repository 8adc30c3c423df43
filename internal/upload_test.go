package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestUploadSendsMultipartFileWithRealMimeType(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "hello world")

	var gotAuth, gotFilename, gotPartType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/v1/attachments/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		reader, err := r.MultipartReader()
		if err != nil {
			t.Fatalf("multipart reader: %v", err)
		}
		part, err := reader.NextPart()
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		if part.FormName() != "file" {
			t.Errorf("form name = %q, want %q", part.FormName(), "file")
		}
		gotFilename = part.FileName()
		gotPartType = part.Header.Get("Content-Type")
		data, _ := io.ReadAll(part)
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]AttachmentRef{
			"data": {{
				OriginalName: "notes.txt",
				UploadedName: "a1b2-notes.txt",
				StoragePath:  "/files/a1b2-notes.txt",
				MimeType:     "text/plain",
			}},
		})
	}))
	defer srv.Close()

	uploader := NewUploader(srv.URL, "tok")
	ref, err := uploader.Upload(PendingFile{Name: "notes.txt", Path: path, MimeType: "text/plain", Size: 11})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotFilename != "notes.txt" {
		t.Errorf("filename = %q", gotFilename)
	}
	if gotPartType != "text/plain" {
		t.Errorf("part content type = %q, want text/plain", gotPartType)
	}
	if gotBody != "hello world" {
		t.Errorf("uploaded body = %q", gotBody)
	}
	if ref.StoragePath != "/files/a1b2-notes.txt" {
		t.Errorf("storage path = %q", ref.StoragePath)
	}
}

func TestUploadServerErrorIsUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"storage full"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := writeTempFile(t, "a.bin", "x")
	_, err := NewUploader(srv.URL, "tok").Upload(PendingFile{Name: "a.bin", Path: path, Size: 1})
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("error = %v, want *UploadError", err)
	}
	if uploadErr.Name != "a.bin" {
		t.Errorf("error names %q, want a.bin", uploadErr.Name)
	}
}

func TestUploadMissingFileIsUploadError(t *testing.T) {
	uploader := NewUploader("http://localhost:0", "tok")
	_, err := uploader.Upload(PendingFile{Name: "ghost.txt", Path: "/does/not/exist", Size: 1})
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("error = %v, want *UploadError", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	uploader := NewUploader("http://localhost:0", "tok")
	_, err := uploader.Upload(PendingFile{Name: "big.iso", Path: "/irrelevant", Size: maxUploadSize + 1})
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("error = %v, want *UploadError", err)
	}
}
