package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHistoryNormalizesSnakeCasedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/room-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"chat_id":"room-1","sender_id":"7","sendername":"bob","message":"first",
			 "attachments":[{"original_name":"a.png","uploaded_name":"x-a.png","file_path":"/files/x-a.png","file_type":"image/png"}]},
			{"chatId":"room-1","senderId":"8","senderName":"eve","message":"second"}
		]}`))
	}))
	defer srv.Close()

	messages, err := NewHistoryFetcher(srv.URL, "tok").Fetch("room-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "bob", messages[0].SenderName)
	assert.Equal(t, "7", messages[0].SenderID)
	assert.Equal(t, "first", messages[0].Body)
	require.Len(t, messages[0].Attachments, 1)
	assert.Equal(t, "/files/x-a.png", messages[0].Attachments[0].StoragePath)
	assert.Equal(t, "image/png", messages[0].Attachments[0].MimeType)

	assert.Equal(t, "eve", messages[1].SenderName)
	assert.Equal(t, "second", messages[1].Body)
}

func TestFetchHistoryServerErrorIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"room not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHistoryFetcher(srv.URL, "tok").Fetch("room-9")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, netErr.Error(), "room not found")
}

func TestFetchHistoryUnreachableHostIsNetworkError(t *testing.T) {
	_, err := NewHistoryFetcher("http://127.0.0.1:1", "tok").Fetch("room-1")
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestFetchRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chats/rooms/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"1","name":"general"},{"id":"2","name":"random"}]}`))
	}))
	defer srv.Close()

	rooms, err := apiFetchRooms(srv.URL, "tok")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, Room{ID: "1", Name: "general"}, rooms[0])
}

func TestFetchRoomsFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := apiFetchRooms(srv.URL, "tok")
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}
