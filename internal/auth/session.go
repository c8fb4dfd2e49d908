package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/proto"
)

// Session persists browser cookies to a JSON file so a later run can
// skip the login flow while the server-side session is still valid.
type Session struct {
	Path string
}

// Load reads the saved cookies. A missing file is not an error: it
// returns nil cookies and the caller proceeds to a fresh login.
func (s Session) Load() ([]*proto.NetworkCookieParam, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Expires:  c.Expires,
		})
	}
	return params, nil
}

// Save writes the current browser cookies to the session file.
func (s Session) Save(cookies []*proto.NetworkCookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
