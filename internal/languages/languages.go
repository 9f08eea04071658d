package languages

import "strings"

// Default is the code every unrecognized or missing language resolves to.
const Default = "en"

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var catalogLanguageMap = map[string]string{
	"en": "English",
	"hi": "Hindi",
}

var fullNameToCode = map[string]string{
	"english": "en",
	"hindi":   "hi",
}

func LanguageName(code string) string {
	if name, ok := catalogLanguageMap[code]; ok {
		return name
	}
	return ""
}

func IsSupported(code string) bool {
	_, ok := catalogLanguageMap[code]
	return ok
}

// Normalize maps a 2-letter code or a full language name, in any case and
// optionally region-suffixed ("en-US"), to a supported 2-letter code.
func Normalize(raw string) string {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if code, ok := fullNameToCode[lang]; ok {
		return code
	}
	if IsSupported(lang) {
		return lang
	}
	return Default
}

// FilterNames returns the full-name vocabulary used by filter criteria.
func FilterNames() []string {
	return []string{"english", "hindi"}
}

func CatalogLanguages() []Language {
	return []Language{
		{Code: "en", Name: catalogLanguageMap["en"]},
		{Code: "hi", Name: catalogLanguageMap["hi"]},
	}
}
