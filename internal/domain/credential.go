package domain

import (
	"encoding/json"
	"net/url"
	"strings"
)

const bearerScheme = "bearer "

// CredentialKind tells how an Invidious credential has to be presented upstream.
type CredentialKind int

const (
	// CredentialRaw is a bare session id, sent upstream as the SID cookie.
	CredentialRaw CredentialKind = iota
	// CredentialSessionWrapped is a JSON token carrying the session id in its
	// "session" member, sent upstream as a bearer token.
	CredentialSessionWrapped
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialSessionWrapped:
		return "session_wrapped"
	default:
		return "raw"
	}
}

// Credential is a classified credential. Value is always the text exactly as
// received after the bearer scheme; it is the cache key and what goes upstream.
type Credential struct {
	Value      string
	Kind       CredentialKind
	Session    string
	HasSession bool
}

// ExtractBearer strips a case-insensitive "Bearer " scheme from an
// Authorization header value.
func ExtractBearer(header string) (string, error) {
	if len(header) < len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", ErrMissingCredential
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// ClassifyCredential decides between the session-wrapped and raw forms.
// It never fails: anything that is not a JSON object is a raw session id.
func ClassifyCredential(value string) Credential {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		decoded = value
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(decoded), &fields); err != nil || fields == nil {
		return Credential{Value: value, Kind: CredentialRaw}
	}

	cred := Credential{Value: value, Kind: CredentialSessionWrapped}
	if raw, ok := fields["session"]; ok {
		var session string
		if err := json.Unmarshal(raw, &session); err == nil {
			cred.Session = session
			cred.HasSession = true
		}
	}
	return cred
}

// SessionID derives the session identifier to resolve in the session store.
func (c Credential) SessionID() (string, error) {
	var id string
	switch c.Kind {
	case CredentialSessionWrapped:
		if !c.HasSession {
			return "", ErrMissingSession
		}
		id = c.Session
	default:
		id = c.Value
	}
	if id == "" {
		return "", ErrEmptySession
	}
	return id, nil
}
