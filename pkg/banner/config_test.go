package banner

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDefaults_Valid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Defaults().Validate() error = %v", err)
	}
}

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, cfg BannerConfig)
	}{
		{
			name: "empty blob yields defaults",
			raw:  "",
			check: func(t *testing.T, cfg BannerConfig) {
				if cfg.Position != PositionBottom {
					t.Errorf("Position = %q, want %q", cfg.Position, PositionBottom)
				}
			},
		},
		{
			name: "null yields defaults",
			raw:  "null",
			check: func(t *testing.T, cfg BannerConfig) {
				if cfg.CookieDays != 365 {
					t.Errorf("CookieDays = %d, want 365", cfg.CookieDays)
				}
			},
		},
		{
			name: "partial colors merge with defaults",
			raw:  `{"theme":"dark","colors":{"button":"#000"}}`,
			check: func(t *testing.T, cfg BannerConfig) {
				if cfg.Theme != ThemeDark {
					t.Errorf("Theme = %q, want %q", cfg.Theme, ThemeDark)
				}
				if cfg.Colors.Button != "#000" {
					t.Errorf("Colors.Button = %q, want #000", cfg.Colors.Button)
				}
				if cfg.Colors.Background != Defaults().Colors.Background {
					t.Errorf("Colors.Background = %q, want default", cfg.Colors.Background)
				}
			},
		},
		{
			name: "stored categories replace defaults",
			raw:  `{"categories":[{"id":"necessary","label":"Needed","required":true}]}`,
			check: func(t *testing.T, cfg BannerConfig) {
				if len(cfg.Categories) != 1 || cfg.Categories[0].Label != "Needed" {
					t.Errorf("Categories = %+v, want single stored category", cfg.Categories)
				}
			},
		},
		{
			name: "empty categories fall back to defaults",
			raw:  `{"categories":[]}`,
			check: func(t *testing.T, cfg BannerConfig) {
				if len(cfg.Categories) != len(Defaults().Categories) {
					t.Errorf("len(Categories) = %d, want %d", len(cfg.Categories), len(Defaults().Categories))
				}
			},
		},
		{
			name: "unknown fields ignored",
			raw:  `{"position":"top","dashboardOnly":true}`,
			check: func(t *testing.T, cfg BannerConfig) {
				if cfg.Position != PositionTop {
					t.Errorf("Position = %q, want %q", cfg.Position, PositionTop)
				}
			},
		},
		{name: "malformed json", raw: `{"position":`, wantErr: true},
		{name: "wrong field type", raw: `{"cookieDays":"forever"}`, wantErr: true},
		{name: "unknown position", raw: `{"position":"sideways"}`, wantErr: true},
		{name: "unknown theme", raw: `{"theme":"neon"}`, wantErr: true},
		{name: "bad color", raw: `{"colors":{"text":"red"}}`, wantErr: true},
		{name: "cookie days out of range", raw: `{"cookieDays":0}`, wantErr: true},
		{name: "cookie name with separator", raw: `{"cookieName":"a;b"}`, wantErr: true},
		{name: "duplicate category", raw: `{"categories":[{"id":"a"},{"id":"a"}]}`, wantErr: true},
		{name: "category without id", raw: `{"categories":[{"label":"x"}]}`, wantErr: true},
		{name: "javascript privacy url", raw: `{"privacyPolicyUrl":"javascript:alert(1)"}`, wantErr: true},
		{
			name: "https privacy url",
			raw:  `{"privacyPolicyUrl":"https://example.com/privacy"}`,
			check: func(t *testing.T, cfg BannerConfig) {
				if cfg.PrivacyPolicyURL != "https://example.com/privacy" {
					t.Errorf("PrivacyPolicyURL = %q", cfg.PrivacyPolicyURL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DecodeConfig(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v does not wrap ErrInvalidConfig", err)
				}
				return
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
