package internal

import (
	"net/http"
	"net/url"
)

// HistoryFetcher retrieves the ordered message backlog for a room. Called at
// most once per activation; its result seeds the head of the message log.
type HistoryFetcher interface {
	Fetch(roomID string) ([]Message, error)
}

type httpHistoryFetcher struct {
	baseURL string
	token   string
}

// NewHistoryFetcher builds a fetcher against the REST backend using the
// session credential.
func NewHistoryFetcher(baseURL, token string) HistoryFetcher {
	return &httpHistoryFetcher{baseURL: baseURL, token: token}
}

func (f *httpHistoryFetcher) Fetch(roomID string) ([]Message, error) {
	var resp struct {
		Data []Message `json:"data"`
	}
	endpoint := f.baseURL + "/api/v1/messages/" + url.PathEscape(roomID)
	if err := doJSONRequest(http.MethodGet, endpoint, f.token, nil, &resp); err != nil {
		return nil, &NetworkError{Op: "fetch history", Err: err}
	}
	return resp.Data, nil
}
