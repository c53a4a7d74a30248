package services

import (
	"time"

	"golang.org/x/text/language"
)

// monthNames holds standalone month names per supported report language.
var monthNames = map[language.Tag][12]string{
	language.English: {
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	language.Russian: {
		"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
	},
}

// English comes first so it wins when nothing matches.
var supportedLocales = []language.Tag{language.English, language.Russian}

var localeMatcher = language.NewMatcher(supportedLocales)

// MonthNamer renders calendar months in one language.
type MonthNamer struct {
	tag   language.Tag
	names [12]string
}

// NewMonthNamer picks the closest supported language for locale, which may
// be a BCP 47 tag or an Accept-Language style list.
func NewMonthNamer(locale string) MonthNamer {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		tags = []language.Tag{language.English}
	}
	_, idx, _ := localeMatcher.Match(tags...)
	tag := supportedLocales[idx]
	return MonthNamer{tag: tag, names: monthNames[tag]}
}

// Name returns the month name of t.
func (n MonthNamer) Name(t time.Time) string {
	return n.names[t.Month()-1]
}

// Locale returns the matched language tag.
func (n MonthNamer) Locale() string {
	return n.tag.String()
}
