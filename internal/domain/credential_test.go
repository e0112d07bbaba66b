package domain

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "canonical scheme", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "uppercase scheme", header: "BEARER abc", want: "abc"},
		{name: "empty header", header: "", wantErr: true},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "scheme without value", header: "Bearer ", wantErr: true},
		{name: "scheme without space", header: "Bearerabc", wantErr: true},
		{name: "whitespace value", header: "Bearer    ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearer(tt.header)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMissingCredential))
				assert.True(t, errors.Is(err, ErrUnauthorized))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyCredential_RawOnMalformedJSON(t *testing.T) {
	inputs := []string{
		"v1:abcdefABCDEF0123456789=",
		"{not json",
		"",
		"[1,2,3]",
		"42",
		"\"quoted\"",
		"null",
		"%zz",
	}

	for _, in := range inputs {
		cred := ClassifyCredential(in)
		assert.Equal(t, CredentialRaw, cred.Kind, "input %q", in)
		assert.Equal(t, in, cred.Value)
	}
}

func TestClassifyCredential_SessionWrapped(t *testing.T) {
	token := `{"session":"v1:session-id","expire":1700000000,"scopes":[":*"]}`

	cred := ClassifyCredential(token)
	assert.Equal(t, CredentialSessionWrapped, cred.Kind)
	assert.True(t, cred.HasSession)
	assert.Equal(t, "v1:session-id", cred.Session)
	assert.Equal(t, token, cred.Value)
}

func TestClassifyCredential_URLEncodedJSON(t *testing.T) {
	token := url.PathEscape(`{"session":"v1:abc+def"}`)

	cred := ClassifyCredential(token)
	assert.Equal(t, CredentialSessionWrapped, cred.Kind)
	assert.Equal(t, "v1:abc+def", cred.Session)
	assert.Equal(t, token, cred.Value, "original encoding is kept for upstream calls")
}

func TestClassifyCredential_MissingOrNonStringSession(t *testing.T) {
	for _, token := range []string{`{"scopes":[]}`, `{"session":123}`, `{}`} {
		cred := ClassifyCredential(token)
		assert.Equal(t, CredentialSessionWrapped, cred.Kind, token)
		assert.False(t, cred.HasSession, token)
	}
}

func TestCredential_SessionID(t *testing.T) {
	tests := []struct {
		name    string
		cred    Credential
		want    string
		wantErr error
	}{
		{
			name: "raw uses the value",
			cred: Credential{Value: "sid-123", Kind: CredentialRaw},
			want: "sid-123",
		},
		{
			name: "wrapped uses the session member",
			cred: Credential{Value: "{}", Kind: CredentialSessionWrapped, Session: "sid-456", HasSession: true},
			want: "sid-456",
		},
		{
			name:    "wrapped without session member",
			cred:    Credential{Value: "{}", Kind: CredentialSessionWrapped},
			wantErr: ErrMissingSession,
		},
		{
			name:    "wrapped with empty session",
			cred:    Credential{Value: `{"session":""}`, Kind: CredentialSessionWrapped, HasSession: true},
			wantErr: ErrEmptySession,
		},
		{
			name:    "empty raw",
			cred:    Credential{Kind: CredentialRaw},
			wantErr: ErrEmptySession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cred.SessionID()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "missing_credential", RejectionReason(ErrMissingCredential))
	assert.Equal(t, "invidious_unavailable", RejectionReason(errors.Join(ErrInvidiousUnavailable, errors.New("dial tcp"))))
	assert.Equal(t, "other", RejectionReason(errors.New("boom")))
}
