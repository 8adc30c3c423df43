package internal

import "encoding/json"

// Message is the payload exchanged over the chat socket and returned by the
// history endpoint. Log order is arrival order; nothing here is a timestamp
// the client reorders by.
type Message struct {
	RoomID      string          `json:"chatId"`
	SenderID    string          `json:"senderId"`
	SenderName  string          `json:"senderName"`
	Body        string          `json:"message"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`

	// LocalID tags optimistic appends so the view can tell its own pending
	// sends apart from server-delivered copies. Never sent on the wire.
	LocalID string `json:"-"`
}

// AttachmentRef is the stable descriptor the upload endpoint hands back.
// Immutable once created.
type AttachmentRef struct {
	OriginalName string `json:"originalName"`
	UploadedName string `json:"uploadedName"`
	StoragePath  string `json:"filePath"`
	MimeType     string `json:"fileType"`
}

// PendingFile is a locally selected attachment awaiting send: a named blob
// with a MIME type, decoupled from how it was picked.
type PendingFile struct {
	Name     string
	Path     string
	MimeType string
	Size     int64
}

// History rows come back from the API with snake_cased column names while
// live socket payloads use the camelCased spellings above, so decoding
// accepts both.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		RoomID        string          `json:"chatId"`
		RoomIDAlt     string          `json:"chat_id"`
		SenderID      string          `json:"senderId"`
		SenderIDAlt   string          `json:"sender_id"`
		SenderName    string          `json:"senderName"`
		SenderNameAlt string          `json:"sendername"`
		Body          string          `json:"message"`
		Attachments   []AttachmentRef `json:"attachments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.RoomID = firstNonEmpty(raw.RoomID, raw.RoomIDAlt)
	m.SenderID = firstNonEmpty(raw.SenderID, raw.SenderIDAlt)
	m.SenderName = firstNonEmpty(raw.SenderName, raw.SenderNameAlt)
	m.Body = raw.Body
	m.Attachments = raw.Attachments
	return nil
}

func (a *AttachmentRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		OriginalName    string `json:"originalName"`
		OriginalNameAlt string `json:"original_name"`
		UploadedName    string `json:"uploadedName"`
		UploadedNameAlt string `json:"uploaded_name"`
		StoragePath     string `json:"filePath"`
		StoragePathAlt  string `json:"file_path"`
		MimeType        string `json:"fileType"`
		MimeTypeAlt     string `json:"file_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.OriginalName = firstNonEmpty(raw.OriginalName, raw.OriginalNameAlt)
	a.UploadedName = firstNonEmpty(raw.UploadedName, raw.UploadedNameAlt)
	a.StoragePath = firstNonEmpty(raw.StoragePath, raw.StoragePathAlt)
	a.MimeType = firstNonEmpty(raw.MimeType, raw.MimeTypeAlt)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
