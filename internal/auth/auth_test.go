package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/voicetask/internal/config"
)

func TestStaticTokens_Validate(t *testing.T) {
	v := NewStaticTokens(map[string]config.Secret{
		"alice": "tok-alice",
		"bob":   "tok-bob",
		"empty": "",
	})
	assert.Equal(t, 2, v.Len())

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{"alice", "tok-alice", "alice", nil},
		{"bob", "tok-bob", "bob", nil},
		{"unknown", "tok-mallory", "", ErrInvalidToken},
		{"prefix of valid", "tok-ali", "", ErrInvalidToken},
		{"empty", "", "", ErrMissingToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := v.Validate(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, user)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer   abc ", "abc", false},
		{"BEARER abc", "abc", false},
		{"Basic abc", "", true},
		{"Bearer", "", true},
		{"Bearer   ", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
