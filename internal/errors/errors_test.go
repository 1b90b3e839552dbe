package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	gerrs "github.com/jdholdren/gossip/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEConstructor(t *testing.T) {
	got := gerrs.E(
		"something went wrong",
		gerrs.Detail{Field: "username", Error: "was bad"},
		http.StatusBadRequest,
	)
	want := &gerrs.Error{
		Err: errors.New("something went wrong"),
		Details: []gerrs.Detail{
			{Field: "username", Error: "was bad"},
		},
		Status: http.StatusBadRequest,
	}

	assert.Equal(t, want, got)
}

func TestMarshalRoundTrip(t *testing.T) {
	in := gerrs.E("post not found", http.StatusNotFound)

	byts, err := json.Marshal(in)
	require.NoError(t, err)

	var out gerrs.Error
	require.NoError(t, json.Unmarshal(byts, &out))

	assert.Equal(t, http.StatusNotFound, out.Status)
	assert.Equal(t, "post not found", out.Err.Error())
}
