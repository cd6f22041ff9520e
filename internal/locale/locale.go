// Package locale picks a speech-recognition language from the system timezone.
package locale

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultLanguage is used when the region is unknown or not English-speaking
const DefaultLanguage = "en-US"

// RecognitionLanguage returns the regional English tag (BCP-47) for the local
// timezone, e.g. en-GB in Europe/London. Returns DefaultLanguage if detection fails.
func RecognitionLanguage() string {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return DefaultLanguage
	}
	return LanguageForTimezone(timezone)
}

// LanguageForTimezone returns the recognition language for a given IANA timezone.
// Exported for testing with specific timezones.
func LanguageForTimezone(timezone string) string {
	// UTC/GMT have no country association
	if timezone == "" || timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return DefaultLanguage
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return DefaultLanguage
	}

	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return DefaultLanguage
	}

	return languageForCountry(country)
}

// languageForCountry returns the English dialect for a country name
func languageForCountry(country string) string {
	if tag, ok := englishDialects[country]; ok {
		return tag
	}
	return DefaultLanguage
}

// BaseLanguage strips the region from a tag: "en-GB" becomes "en".
// Whisper-style backends take ISO-639-1 codes only.
func BaseLanguage(tag string) string {
	base, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(base)
}

// englishDialects lists regions with a distinct English recognition model.
// Everywhere else is recognised as en-US.
var englishDialects = map[string]string{
	// North America
	"United States": "en-US",
	"Canada":        "en-CA",

	// Europe
	"United Kingdom": "en-GB",
	"Britain (UK)":   "en-GB",
	"Isle of Man":    "en-GB",
	"Jersey":         "en-GB",
	"Guernsey":       "en-GB",
	"Gibraltar":      "en-GB",
	"Ireland":        "en-IE",

	// Oceania
	"Australia":   "en-AU",
	"New Zealand": "en-NZ",

	// Africa
	"South Africa": "en-ZA",
	"Kenya":        "en-KE",
	"Nigeria":      "en-NG",
	"Ghana":        "en-GH",
	"Tanzania":     "en-TZ",

	// Asia
	"India":       "en-IN",
	"Pakistan":    "en-PK",
	"Philippines": "en-PH",
	"Singapore":   "en-SG",
}
