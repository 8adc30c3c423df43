package internal

import "net/http"

// Room is one entry from the room directory. Name is display-only; ID is
// what activations key on.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// apiFetchRooms pulls the room directory. Failures come back as a
// NetworkError so the caller can fall back to the cached list.
func apiFetchRooms(baseURL, token string) ([]Room, error) {
	var resp struct {
		Data []Room `json:"data"`
	}
	if err := doJSONRequest(http.MethodGet, baseURL+"/api/v1/chats/rooms/", token, nil, &resp); err != nil {
		return nil, &NetworkError{Op: "fetch rooms", Err: err}
	}
	return resp.Data, nil
}
