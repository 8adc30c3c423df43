package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
)

const maxUploadSize = 25 * 1024 * 1024

// Uploader pushes one file to the attachment storage service and returns the
// stable reference descriptor. Calls are independent of each other; the
// session manager decides what all-or-nothing means for a message.
type Uploader interface {
	Upload(file PendingFile) (AttachmentRef, error)
}

type httpUploader struct {
	baseURL string
	token   string
}

func NewUploader(baseURL, token string) Uploader {
	return &httpUploader{baseURL: baseURL, token: token}
}

func (u *httpUploader) Upload(file PendingFile) (AttachmentRef, error) {
	if file.Size > maxUploadSize {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: errors.New("file too large")}
	}

	source, err := os.Open(file.Path)
	if err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}
	defer source.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := createFilePart(writer, file)
	if err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}
	if _, err := io.Copy(part, source); err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}
	if err := writer.Close(); err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, u.baseURL+"/api/v1/attachments/upload", body)
	if err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	client := &http.Client{Timeout: httpTimeout * 6}
	resp, err := client.Do(req)
	if err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AttachmentRef{}, &UploadError{
			Name: file.Name,
			Err:  fmt.Errorf("server returned %d: %s", resp.StatusCode, readResponseError(resp.Body)),
		}
	}

	var parsed struct {
		Data []AttachmentRef `json:"data"`
	}
	if err := decodeJSONBody(resp.Body, &parsed); err != nil {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: err}
	}
	if len(parsed.Data) == 0 {
		return AttachmentRef{}, &UploadError{Name: file.Name, Err: errors.New("empty upload response")}
	}
	return parsed.Data[0], nil
}

// createFilePart writes the form-data part by hand so the part carries the
// file's real MIME type instead of application/octet-stream.
func createFilePart(writer *multipart.Writer, file PendingFile) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, escapeQuotes(file.Name)))
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	return writer.CreatePart(header)
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

func decodeJSONBody(body io.Reader, out interface{}) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(data, out)
}
