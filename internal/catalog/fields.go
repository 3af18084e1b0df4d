package catalog

import "strings"

// DefaultLocale is the locale whose columns hold the catalog content.
const DefaultLocale = "uz"

// Fields names the title/description column pair for a locale.
type Fields struct {
	Locale      string
	Title       string
	Description string
}

// Only locales with stored columns are listed here.
var localeFields = map[string]Fields{
	DefaultLocale: {Locale: DefaultLocale, Title: "title", Description: "description"},
}

// FieldsFor returns the columns for locale, falling back to the default
// locale's columns when locale has none.
func FieldsFor(locale string) Fields {
	if f, ok := localeFields[strings.ToLower(strings.TrimSpace(locale))]; ok {
		return f
	}
	return localeFields[DefaultLocale]
}

// Supported reports whether locale has its own columns.
func Supported(locale string) bool {
	_, ok := localeFields[strings.ToLower(strings.TrimSpace(locale))]
	return ok
}
