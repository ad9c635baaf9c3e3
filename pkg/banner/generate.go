package banner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// Generator renders the delivered script for an active banner.
// Implementations must be deterministic and free of side effects.
type Generator interface {
	Generate(id string, cfg BannerConfig) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(id string, cfg BannerConfig) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(id string, cfg BannerConfig) (string, error) {
	return f(id, cfg)
}

// ScriptGenerator renders the consent banner runtime with the banner
// configuration embedded as a JSON literal.
type ScriptGenerator struct {
	tmpl *template.Template
}

// NewScriptGenerator parses the embedded script template.
func NewScriptGenerator() *ScriptGenerator {
	return &ScriptGenerator{
		tmpl: template.Must(template.New("banner.js").Parse(scriptTemplate)),
	}
}

type scriptData struct {
	Config string
}

// Generate implements Generator. Configuration values only ever reach the
// output through encoding/json, which escapes quotes, "<", ">", "&" and the
// JS line separators, so stored text cannot break out of the literal.
func (g *ScriptGenerator) Generate(id string, cfg BannerConfig) (string, error) {
	payload, err := json.Marshal(struct {
		ID string `json:"id"`
		BannerConfig
	}{ID: id, BannerConfig: cfg})
	if err != nil {
		return "", fmt.Errorf("marshal banner config: %w", err)
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, scriptData{Config: string(payload)}); err != nil {
		return "", fmt.Errorf("render banner script: %w", err)
	}
	return buf.String(), nil
}

// jsString returns s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const scriptTemplate = `/* consent banner */
(function () {
  "use strict";
  var cfg = {{.Config}};
  if (window.__consentBanner && window.__consentBanner.id === cfg.id) { return; }
  var api = window.__consentBanner = { id: cfg.id, consent: null };

  function readConsent() {
    var m = document.cookie.match(new RegExp("(?:^|; )" + cfg.cookieName + "=([^;]*)"));
    if (!m) { return null; }
    try { return JSON.parse(decodeURIComponent(m[1])); } catch (e) { return null; }
  }

  function writeConsent(granted) {
    var value = { id: cfg.id, granted: granted, ts: Date.now() };
    var maxAge = cfg.cookieDays * 86400;
    document.cookie = cfg.cookieName + "=" + encodeURIComponent(JSON.stringify(value)) +
      "; path=/; max-age=" + maxAge + "; SameSite=Lax";
    api.consent = value;
    try { window.dispatchEvent(new CustomEvent("consentbanner:change", { detail: value })); } catch (e) {}
  }

  function decide(all) {
    var granted = {};
    for (var i = 0; i < cfg.categories.length; i++) {
      var c = cfg.categories[i];
      granted[c.id] = c.required || all;
    }
    writeConsent(granted);
    var el = document.getElementById("consent-banner-" + cfg.id);
    if (el && el.parentNode) { el.parentNode.removeChild(el); }
  }

  function render() {
    var c = cfg.colors, t = cfg.texts;
    var root = document.createElement("div");
    root.id = "consent-banner-" + cfg.id;
    root.setAttribute("role", "dialog");
    root.setAttribute("aria-label", t.title);
    root.setAttribute("lang", cfg.language);
    root.className = "consent-banner consent-banner--" + cfg.position + " consent-banner--" + cfg.theme;
    root.style.cssText = "position:fixed;z-index:2147483647;max-width:100%;box-sizing:border-box;padding:16px;" +
      "font-family:system-ui,sans-serif;box-shadow:0 2px 12px rgba(0,0,0,.2);" +
      "background:" + c.background + ";color:" + c.text + ";" +
      (cfg.position === "top" ? "top:0;left:0;right:0;" :
       cfg.position === "bottom-left" ? "bottom:16px;left:16px;width:360px;" :
       cfg.position === "bottom-right" ? "bottom:16px;right:16px;width:360px;" :
       "bottom:0;left:0;right:0;");

    var title = document.createElement("strong");
    title.textContent = t.title;
    var msg = document.createElement("p");
    msg.textContent = t.message;
    root.appendChild(title);
    root.appendChild(msg);

    if (cfg.privacyPolicyUrl) {
      var link = document.createElement("a");
      link.href = cfg.privacyPolicyUrl;
      link.textContent = cfg.privacyPolicyUrl;
      link.rel = "noopener";
      link.target = "_blank";
      link.style.color = c.text;
      root.appendChild(link);
    }

    function button(label, all) {
      var b = document.createElement("button");
      b.type = "button";
      b.textContent = label;
      b.style.cssText = "margin:8px 8px 0 0;padding:8px 14px;border:0;border-radius:4px;cursor:pointer;" +
        "background:" + c.button + ";color:" + c.buttonText + ";";
      b.onclick = function () { decide(all); };
      return b;
    }
    root.appendChild(button(t.acceptLabel, true));
    root.appendChild(button(t.rejectLabel, false));

    document.body.appendChild(root);
  }

  api.consent = readConsent();
  if (api.consent) { return; }
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", render);
  } else {
    render();
  }
})();
`
