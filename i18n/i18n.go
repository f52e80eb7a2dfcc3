package i18n

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const DefaultLang = "en"

var catalogs = map[string]map[string]string{}

// Load reads every <lang>.json message catalog found in dir. The default
// language's catalog must be among them, since it backs the fallback path.
func Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		var cat map[string]string
		if err := json.Unmarshal(data, &cat); err != nil {
			return fmt.Errorf("i18n: parsing %s: %w", name, err)
		}
		catalogs[strings.TrimSuffix(name, ".json")] = cat
	}

	if _, ok := catalogs[DefaultLang]; !ok {
		return fmt.Errorf("i18n: no %s.json catalog in %s", DefaultLang, dir)
	}
	return nil
}

// T resolves key in lang, falling back to the default language and finally
// to the key itself.
func T(lang, key string) string {
	if msg, ok := catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := catalogs[DefaultLang][key]; ok {
		return msg
	}
	return key
}

// DetectLanguage picks the first Accept-Language entry with a loaded
// catalog, e.g. "fr-CH, fr;q=0.9, en;q=0.8" resolves to fr.
func DetectLanguage(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		lang := strings.TrimSpace(strings.Split(part, ";")[0])
		if len(lang) > 2 {
			lang = lang[:2]
		}
		if _, ok := catalogs[lang]; ok {
			return lang
		}
	}
	return DefaultLang
}
