package i18n

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, dir, lang, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, lang+".json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDiscoversCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en", `{"Greeting": "Hello"}`)
	writeCatalog(t, dir, "fr", `{"Greeting": "Bonjour"}`)
	writeCatalog(t, dir, "de", `{"Greeting": "Hallo"}`)

	if err := Load(dir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := T("fr", "Greeting"); got != "Bonjour" {
		t.Errorf("Expected Bonjour, got %q", got)
	}
	if got := T("de", "Greeting"); got != "Hallo" {
		t.Errorf("Catalog not discovered from directory, got %q", got)
	}
}

func TestLoadRequiresDefaultCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "fr", `{"Greeting": "Bonjour"}`)

	if err := Load(dir); err == nil {
		t.Error("Expected error when the default catalog is missing")
	}
}

func TestLoadRejectsMalformedCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en", `not json`)

	if err := Load(dir); err == nil {
		t.Error("Expected error for a malformed catalog")
	}
}

func TestTFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en", `{"OnlyEnglish": "English text"}`)
	writeCatalog(t, dir, "fr", `{}`)
	if err := Load(dir); err != nil {
		t.Fatal(err)
	}

	// Missing in fr: fall back to the default language
	if got := T("fr", "OnlyEnglish"); got != "English text" {
		t.Errorf("Expected default-language fallback, got %q", got)
	}
	// Missing everywhere: the key itself comes back
	if got := T("fr", "NoSuchKey"); got != "NoSuchKey" {
		t.Errorf("Expected key passthrough, got %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en", `{}`)
	writeCatalog(t, dir, "fr", `{}`)
	if err := Load(dir); err != nil {
		t.Fatal(err)
	}

	cases := []struct{ header, want string }{
		{"fr-CH, fr;q=0.9, en;q=0.8", "fr"},
		{"de-DE, de;q=0.9", "en"},
		{"en-US,en;q=0.5", "en"},
		{"", "en"},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if c.header != "" {
			r.Header.Set("Accept-Language", c.header)
		}
		if got := DetectLanguage(r); got != c.want {
			t.Errorf("Header %q: expected %q, got %q", c.header, c.want, got)
		}
	}
}
