package proxy

import (
	"strings"

	"golang.org/x/text/language"
)

// supported are the locales the drive web app ships translations for; the
// configured locale is matched against them.
var supported = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Japanese,
	language.Korean,
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.Dutch,
	language.BrazilianPortuguese,
	language.Russian,
}

var matcher = language.NewMatcher(supported)

// acceptLanguage builds an Accept-Language value such as "de-DE,de;q=0.9"
// for a user locale. An empty or invalid locale yields US English.
func acceptLanguage(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		locale = locale[:i]
	}
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.AmericanEnglish
	}
	best, _, conf := matcher.Match(tag)
	if conf == language.No {
		best = language.AmericanEnglish
	}
	base, _ := best.Base()
	region, _ := tag.Region()

	first := best.String()
	if region.String() != "ZZ" {
		first = base.String() + "-" + region.String()
	}
	if first == base.String() {
		return first
	}
	return first + "," + base.String() + ";q=0.9"
}
