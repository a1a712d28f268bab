package translate

import "strings"

// languageNames maps canonical uppercase codes to English language names used
// in provider prompts. Unmapped codes fall back to the code itself.
var languageNames = map[string]string{
	"EN": "English",
	"ES": "Spanish",
	"FR": "French",
	"DE": "German",
	"IT": "Italian",
	"PT": "Portuguese",
	"NL": "Dutch",
	"PL": "Polish",
	"RU": "Russian",
	"JA": "Japanese",
	"KO": "Korean",
	"ZH": "Chinese",
	"AR": "Arabic",
	"HI": "Hindi",
	"TR": "Turkish",
	"VI": "Vietnamese",
	"TH": "Thai",
	"ID": "Indonesian",
	"UK": "Ukrainian",
	"SV": "Swedish",
}

// NormalizeLang canonicalizes a target language to an uppercase code.
func NormalizeLang(lang string) string {
	return strings.ToUpper(strings.TrimSpace(lang))
}

// LanguageName returns the English name for a canonical code, or the code
// itself when unmapped.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
