package banner

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// ErrInvalidConfig indicates a stored configuration cannot be rendered.
var ErrInvalidConfig = errors.New("invalid banner config")

// Banner positions.
const (
	PositionBottom      = "bottom"
	PositionTop         = "top"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
)

// Banner themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	cookieName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Colors holds the banner palette as CSS hex colors.
type Colors struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Button     string `json:"button"`
	ButtonText string `json:"buttonText"`
}

// Texts holds the user-facing copy.
type Texts struct {
	Title         string `json:"title"`
	Message       string `json:"message"`
	AcceptLabel   string `json:"acceptLabel"`
	RejectLabel   string `json:"rejectLabel"`
	SettingsLabel string `json:"settingsLabel"`
}

// Category is a consent category shown in the settings view.
type Category struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// BannerConfig is the typed form of the stored configuration blob.
type BannerConfig struct {
	Position         string     `json:"position"`
	Theme            string     `json:"theme"`
	Language         string     `json:"language"`
	Colors           Colors     `json:"colors"`
	Texts            Texts      `json:"texts"`
	Categories       []Category `json:"categories"`
	PrivacyPolicyURL string     `json:"privacyPolicyUrl,omitempty"`
	CookieName       string     `json:"cookieName"`
	CookieDays       int        `json:"cookieDays"`
}

// Defaults returns the configuration used for every field a stored record
// leaves out.
func Defaults() BannerConfig {
	return BannerConfig{
		Position: PositionBottom,
		Theme:    ThemeLight,
		Language: "en",
		Colors: Colors{
			Background: "#ffffff",
			Text:       "#1f2937",
			Button:     "#2563eb",
			ButtonText: "#ffffff",
		},
		Texts: Texts{
			Title:         "We value your privacy",
			Message:       "We use cookies to improve your experience and analyse traffic.",
			AcceptLabel:   "Accept all",
			RejectLabel:   "Reject all",
			SettingsLabel: "Settings",
		},
		Categories: []Category{
			{ID: "necessary", Label: "Necessary", Required: true},
			{ID: "analytics", Label: "Analytics"},
			{ID: "marketing", Label: "Marketing"},
		},
		CookieName: "cookie_consent",
		CookieDays: 365,
	}
}

// DecodeConfig decodes a stored configuration over Defaults and validates
// the result. An empty blob yields the defaults.
func DecodeConfig(raw json.RawMessage) (BannerConfig, error) {
	cfg := Defaults()
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return BannerConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	// An explicit empty list means "use the defaults", not "no categories"
	if len(cfg.Categories) == 0 {
		cfg.Categories = Defaults().Categories
	}

	if err := cfg.Validate(); err != nil {
		return BannerConfig{}, err
	}
	return cfg, nil
}

// Validate checks the values generation depends on.
func (c BannerConfig) Validate() error {
	switch c.Position {
	case PositionBottom, PositionTop, PositionBottomLeft, PositionBottomRight:
	default:
		return fmt.Errorf("%w: unknown position %q", ErrInvalidConfig, c.Position)
	}

	switch c.Theme {
	case ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidConfig, c.Theme)
	}

	colors := []struct{ name, value string }{
		{"background", c.Colors.Background},
		{"text", c.Colors.Text},
		{"button", c.Colors.Button},
		{"buttonText", c.Colors.ButtonText},
	}
	for _, color := range colors {
		if !hexColor.MatchString(color.value) {
			return fmt.Errorf("%w: color %s %q is not a hex color", ErrInvalidConfig, color.name, color.value)
		}
	}

	if !cookieName.MatchString(c.CookieName) {
		return fmt.Errorf("%w: cookie name %q must match %s", ErrInvalidConfig, c.CookieName, cookieName)
	}
	if c.CookieDays < 1 || c.CookieDays > 730 {
		return fmt.Errorf("%w: cookie days %d out of range 1-730", ErrInvalidConfig, c.CookieDays)
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.ID == "" {
			return fmt.Errorf("%w: category without id", ErrInvalidConfig)
		}
		if seen[cat.ID] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidConfig, cat.ID)
		}
		seen[cat.ID] = true
	}

	if c.PrivacyPolicyURL != "" {
		u, err := url.Parse(c.PrivacyPolicyURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: privacy policy url %q must be absolute http(s)", ErrInvalidConfig, c.PrivacyPolicyURL)
		}
	}

	return nil
}
