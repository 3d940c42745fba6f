// Package i18n localizes notification and error copy with golang.org/x/text.
package i18n

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseLocale is the canonical source locale for messages.
const BaseLocale = "en-US"

var supportedTags = []language.Tag{
	language.English,
	language.MustParse("pt-BR"),
}

var tagMatcher = language.NewMatcher(supportedTags)

// catalogs holds message templates by locale.
var catalogs = map[string]map[string]string{
	BaseLocale: messagesEN,
	"pt-BR":    messagesPTBR,
}

func init() {
	for locale, messages := range catalogs {
		tag := ResolveTag(locale)
		for key, text := range messages {
			if err := message.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
}

// Locales returns the catalog locales in sorted order.
func Locales() []string {
	return slices.Sorted(maps.Keys(catalogs))
}

// Messages returns a copy of the message templates for locale, or nil when
// the locale has no catalog.
func Messages(locale string) map[string]string {
	messages, ok := catalogs[locale]
	if !ok {
		return nil
	}
	return maps.Clone(messages)
}

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// ResolveTag returns the closest supported tag for locale, falling back to
// Default for empty or unparseable values.
func ResolveTag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return Default()
	}
	parsed, err := language.Parse(locale)
	if err != nil {
		return Default()
	}
	_, index, confidence := tagMatcher.Match(parsed)
	if confidence == language.No {
		return Default()
	}
	return supportedTags[index]
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Sprintf localizes key for locale.
func Sprintf(locale string, key string, args ...any) string {
	return Printer(ResolveTag(locale)).Sprintf(key, args...)
}
