package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "assistant", "system"} {
		r, err := ParseRole(s)
		require.NoError(t, err)
		require.Equal(t, s, r.String())
	}

	_, err := ParseRole("tool")
	require.ErrorIs(t, err, ErrMalformedHistory)
	_, err = ParseRole("")
	require.ErrorIs(t, err, ErrMalformedHistory)
}

func TestMessage_JSONShape(t *testing.T) {
	b, err := json.Marshal(NewMessage(RoleUser, ""))
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"user","content":""}`, string(b))
}

func TestMessage_UnmarshalRejectsOtherShapes(t *testing.T) {
	cases := map[string]string{
		"unknown role":    `{"role":"robot","content":"x"}`,
		"missing content": `{"role":"user"}`,
		"missing role":    `{"content":"x"}`,
		"extra field":     `{"role":"user","content":"x","name":"bob"}`,
		"not an object":   `"user"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var m Message
			err := json.Unmarshal([]byte(raw), &m)
			require.ErrorIs(t, err, ErrMalformedHistory)
		})
	}
}

func TestMessage_UnmarshalValid(t *testing.T) {
	var msgs []Message
	err := json.Unmarshal([]byte(`[{"role":"system","content":"be brief"},{"content":"hi","role":"user"}]`), &msgs)
	require.NoError(t, err)
	require.Equal(t, []Message{NewMessage(RoleSystem, "be brief"), NewMessage(RoleUser, "hi")}, msgs)
}
