package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToContents_PreservesOrderAndRoles(t *testing.T) {
	got := ToContents([]Turn{
		{Role: RoleUser, Text: "Сколько стоит топосъемка?"},
		{Role: RoleModel, Text: "Зависит от площади."},
	})

	require.Equal(t, []Content{
		{Role: RoleUser, Parts: []Part{{Text: "Сколько стоит топосъемка?"}}},
		{Role: RoleModel, Parts: []Part{{Text: "Зависит от площади."}}},
	}, got)
}

func TestContentText_JoinsParts(t *testing.T) {
	c := Content{Role: RoleUser, Parts: []Part{{Text: "a"}, {Text: "b"}}}
	require.Equal(t, "ab", c.Text())
	require.Equal(t, "", Content{}.Text())
}

func TestLastTurns(t *testing.T) {
	h := []int{1, 2, 3, 4, 5}
	require.Equal(t, []int{4, 5}, LastTurns(h, 2))
	require.Equal(t, h, LastTurns(h, 0))
	require.Equal(t, h, LastTurns(h, 10))
}

func TestChatRequest_UnmarshalLenient(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		wantHistory []Content
	}{
		{
			name:        "full request",
			body:        `{"message":"Привет","history":[{"role":"user","parts":[{"text":"a"}]},{"role":"model","parts":[{"text":"b"}]}]}`,
			wantMessage: "Привет",
			wantHistory: []Content{
				{Role: RoleUser, Parts: []Part{{Text: "a"}}},
				{Role: RoleModel, Parts: []Part{{Text: "b"}}},
			},
		},
		{name: "missing history", body: `{"message":"hi"}`, wantMessage: "hi"},
		{name: "history is a string", body: `{"message":"hi","history":"oops"}`, wantMessage: "hi"},
		{name: "history items malformed", body: `{"message":"hi","history":[1,2]}`, wantMessage: "hi"},
		{name: "message is a number", body: `{"message":42}`},
		{name: "message is null", body: `{"message":null}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req ChatRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			require.Equal(t, tc.wantMessage, req.Message)
			require.Equal(t, tc.wantHistory, req.History)
		})
	}
}

func TestChatRequest_UnmarshalRejectsNonObject(t *testing.T) {
	var req ChatRequest
	require.Error(t, json.Unmarshal([]byte(`"hello"`), &req))
}

func TestChatRequest_HasMessage(t *testing.T) {
	require.True(t, ChatRequest{Message: "x"}.HasMessage())
	require.True(t, ChatRequest{Message: " \n\t"}.HasMessage())
	require.False(t, ChatRequest{}.HasMessage())
}
