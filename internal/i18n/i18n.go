// Package i18n localizes user-facing error messages. Messages are keyed by
// error code and the catalogue ships embedded in the binary.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	LocaleES = "es"
	LocaleEN = "en"
)

var supported = []language.Tag{language.Spanish, language.English}

type ctxKey struct{}

type Translator struct {
	bundle        *goi18n.Bundle
	matcher       language.Matcher
	defaultLocale string
}

func New(defaultLocale string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.Spanish)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, file := range []string{"locales/active.es.json", "locales/active.en.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	t := &Translator{
		bundle:        bundle,
		matcher:       language.NewMatcher(supported),
		defaultLocale: LocaleES,
	}
	if defaultLocale == LocaleEN {
		t.defaultLocale = LocaleEN
	}
	return t, nil
}

func (t *Translator) DefaultLocale() string {
	return t.defaultLocale
}

// Match picks a supported locale from an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLocale
	}
	tag, _, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.defaultLocale
	}
	base, _ := tag.Base()
	if base.String() == LocaleEN {
		return LocaleEN
	}
	return LocaleES
}

// T translates messageID, falling back to fallback when the catalogue has no entry.
func (t *Translator) T(locale, messageID, fallback string) string {
	if locale == "" {
		locale = t.defaultLocale
	}
	localizer := goi18n.NewLocalizer(t.bundle, locale)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID: messageID,
		DefaultMessage: &goi18n.Message{
			ID:    messageID,
			Other: fallback,
		},
	})
	if err != nil && msg == "" {
		return fallback
	}
	return msg
}

func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	locale, _ := ctx.Value(ctxKey{}).(string)
	return locale
}
