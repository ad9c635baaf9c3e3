package banner

import (
	"strings"
	"testing"
)

const testID = "3f1c1e4a-6a3b-4c6e-9d1f-2b7f0c9a8e51"

func TestScriptGenerator_Deterministic(t *testing.T) {
	gen := NewScriptGenerator()
	cfg := Defaults()

	first, err := gen.Generate(testID, cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := gen.Generate(testID, cfg)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if got != first {
			t.Fatalf("Generate() call %d differs from first call (not deterministic)", i)
		}
	}
}

func TestScriptGenerator_EmbedsConfig(t *testing.T) {
	gen := NewScriptGenerator()
	cfg := Defaults()
	cfg.Texts.Title = "Cookies here"
	cfg.Position = PositionTop

	script, err := gen.Generate(testID, cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, want := range []string{
		`"id":"` + testID + `"`,
		`"title":"Cookies here"`,
		`"position":"top"`,
		`"cookieName":"cookie_consent"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script does not contain %s", want)
		}
	}
}

func TestScriptGenerator_EscapesText(t *testing.T) {
	gen := NewScriptGenerator()
	cfg := Defaults()
	cfg.Texts.Message = "\"};alert(1);</script><script>x=\"\u2028"

	script, err := gen.Generate(testID, cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, bad := range []string{"</script>", "\u2028"} {
		if strings.Contains(script, bad) {
			t.Errorf("script contains unescaped %q", bad)
		}
	}
	want := `"message":"\"};alert(1);\u003c/script\u003e\u003cscript\u003ex=\"\u2028"`
	if !strings.Contains(script, want) {
		t.Errorf("message not embedded as escaped JSON string, want %s", want)
	}
}

func TestGeneratorFunc(t *testing.T) {
	var gen Generator = GeneratorFunc(func(id string, cfg BannerConfig) (string, error) {
		return "/* " + id + " */", nil
	})

	got, err := gen.Generate("x", Defaults())
	if err != nil || got != "/* x */" {
		t.Errorf("Generate() = (%q, %v), want (%q, nil)", got, err, "/* x */")
	}
}

func TestNoopScript(t *testing.T) {
	tests := []struct {
		name  string
		level string
		msg   string
		want  string
	}{
		{
			name:  "error level",
			level: LevelError,
			msg:   "failed",
			want:  "console.error(\"[consent-banner] failed\");\n",
		},
		{
			name:  "unknown level falls back to log",
			level: "alert",
			msg:   "x",
			want:  "console.log(\"[consent-banner] x\");\n",
		},
		{
			name:  "hostile message stays inside the string literal",
			level: LevelWarn,
			msg:   `");alert(1);//`,
			want:  "console.warn(\"[consent-banner] \\\");alert(1);//\");\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NoopScript(tt.level, tt.msg); got != tt.want {
				t.Errorf("NoopScript() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInactiveScript(t *testing.T) {
	got := InactiveScript(testID)
	want := "console.info(\"[consent-banner] banner " + testID + " is inactive\");\n"
	if got != want {
		t.Errorf("InactiveScript() = %q, want %q", got, want)
	}
}
