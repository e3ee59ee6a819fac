package browser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// sessionCookieName is the cookie that carries the authenticated session.
// Without it every page load lands on the logged-out public view.
const sessionCookieName = "li_at"

// cookieEntry matches the export format of common cookie-dump extensions
// ("EditThisCookie"-style JSON arrays).
type cookieEntry struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expirationDate"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// applyCookieFile loads the cookie export at path and installs the cookies
// on the page. It returns true only when a session cookie was among them;
// any other cookies still get applied, they just don't grant the
// authenticated view.
func applyCookieFile(page *rod.Page, path string) (bool, error) {
	entries, err := loadCookies(path)
	if err != nil {
		return false, err
	}

	hasSession := false
	applied := 0
	for _, c := range entries {
		param := sanitizeCookie(c)
		if param == nil {
			continue
		}
		if _, err := param.Call(page); err != nil {
			slog.Debug("cookie rejected by browser", "name", c.Name, "error", err)
			continue
		}
		applied++
		if c.Name == sessionCookieName && c.Value != "" {
			hasSession = true
		}
	}

	slog.Info("cookies applied", "path", path, "applied", applied,
		"total", len(entries), "session", hasSession)
	return hasSession, nil
}

// loadCookies reads and decodes the cookie export file.
func loadCookies(path string) ([]cookieEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}
	var entries []cookieEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing cookie file: %w", err)
	}
	return entries, nil
}

// sanitizeCookie converts an exported cookie into a CDP SetCookie param,
// fixing the fields browser extensions routinely export in invalid shapes.
// Returns nil for cookies that cannot be repaired.
func sanitizeCookie(c cookieEntry) *proto.NetworkSetCookie {
	if c.Name == "" || c.Value == "" {
		return nil
	}

	domain := c.Domain
	if domain == "" {
		domain = ".linkedin.com"
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	param := &proto.NetworkSetCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   domain,
		Path:     path,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	if c.Expires > 0 {
		param.Expires = proto.TimeSinceEpoch(c.Expires)
	}

	// Exports use lowercase or long-form sameSite values; CDP only accepts
	// the three canonical ones. "no_restriction" requires Secure.
	switch strings.ToLower(c.SameSite) {
	case "strict":
		param.SameSite = proto.NetworkCookieSameSiteStrict
	case "lax":
		param.SameSite = proto.NetworkCookieSameSiteLax
	case "none", "no_restriction":
		param.SameSite = proto.NetworkCookieSameSiteNone
		param.Secure = true
	}

	return param
}
