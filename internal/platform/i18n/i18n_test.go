package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestResolveTag(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"", language.English},
		{"en-US", language.English},
		{"pt-BR", language.MustParse("pt-BR")},
		{"not a locale", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			if got := ResolveTag(tt.locale); got != tt.want {
				t.Fatalf("tag = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSprintfLocalizes(t *testing.T) {
	if got := Sprintf("en-US", KeyDamageApplied, "Aria", 2, "major"); got != "Aria marks 2 hit points (major)." {
		t.Fatalf("en = %q", got)
	}
	if got := Sprintf("pt-BR", KeyUndoRestored, 3); got != "3 alvos restaurados." {
		t.Fatalf("pt-BR = %q", got)
	}
}

func TestSupportedReturnsCopy(t *testing.T) {
	tags := Supported()
	tags[0] = language.Japanese
	if Supported()[0] != language.English {
		t.Fatal("expected Supported to return a copy")
	}
}

func TestCatalogsShareKeys(t *testing.T) {
	base := Messages(BaseLocale)
	if len(base) == 0 {
		t.Fatal("expected base catalog")
	}
	for _, locale := range Locales() {
		messages := Messages(locale)
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Fatalf("%s missing key %q", locale, key)
			}
		}
		if len(messages) != len(base) {
			t.Fatalf("%s has %d keys, want %d", locale, len(messages), len(base))
		}
	}
}

func TestMessagesUnknownLocale(t *testing.T) {
	if got := Messages("fr-FR"); got != nil {
		t.Fatalf("Messages(fr-FR) = %v, want nil", got)
	}
}
