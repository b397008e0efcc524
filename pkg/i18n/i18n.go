package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales
const (
	LocaleEnglish = "en"
	LocaleGerman  = "de"
	DefaultLocale = LocaleEnglish
)

var supported = map[string]bool{LocaleEnglish: true, LocaleGerman: true}

type localeKey struct{}

var (
	catalog     map[string]map[string]interface{}
	catalogOnce sync.Once
)

func loadMessages() {
	catalogOnce.Do(func() {
		catalog = make(map[string]map[string]interface{})
		for locale := range supported {
			data, err := messagesFS.ReadFile("messages/" + locale + ".json")
			if err != nil {
				continue
			}
			var msg map[string]interface{}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			catalog[locale] = msg
		}
	})
}

// Localizer translates message keys for one locale.
type Localizer struct {
	locale string
}

// NewLocalizer creates a localizer; unsupported locales fall back to English.
func NewLocalizer(locale string) *Localizer {
	loadMessages()
	if !supported[locale] {
		locale = DefaultLocale
	}
	return &Localizer{locale: locale}
}

// LocalizerFromContext creates a localizer from context
func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// T translates a dot-separated key, substituting {name} placeholders from params.
// Unknown keys are returned unchanged.
func (l *Localizer) T(key string, params ...map[string]string) string {
	msg := lookup(key, l.locale)
	if msg == "" {
		msg = lookup(key, DefaultLocale)
	}
	if msg == "" {
		return key
	}

	if len(params) > 0 {
		for k, v := range params[0] {
			msg = strings.ReplaceAll(msg, "{"+k+"}", v)
		}
	}
	return msg
}

// Locale returns the localizer's locale.
func (l *Localizer) Locale() string {
	return l.locale
}

func lookup(key, locale string) string {
	current, ok := catalog[locale]
	if !ok {
		return ""
	}

	parts := strings.Split(key, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			s, _ := current[part].(string)
			return s
		}
		nested, ok := current[part].(map[string]interface{})
		if !ok {
			return ""
		}
		current = nested
	}
	return ""
}

// WithLocale adds locale to context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext retrieves locale from context
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage picks the supported locale with the highest q-value.
func ParseAcceptLanguage(header string) string {
	if header == "" {
		return DefaultLocale
	}

	type candidate struct {
		tag string
		q   float64
		pos int
	}
	var candidates []candidate

	for i, part := range strings.Split(header, ",") {
		fields := strings.Split(strings.TrimSpace(part), ";")
		tag := strings.ToLower(strings.TrimSpace(fields[0]))
		if idx := strings.IndexAny(tag, "-_"); idx > 0 {
			tag = tag[:idx]
		}
		q := 1.0
		for _, f := range fields[1:] {
			f = strings.TrimSpace(f)
			if strings.HasPrefix(f, "q=") {
				if v, err := strconv.ParseFloat(strings.TrimPrefix(f, "q="), 64); err == nil {
					q = v
				}
			}
		}
		if supported[tag] && q > 0 {
			candidates = append(candidates, candidate{tag: tag, q: q, pos: i})
		}
	}

	if len(candidates) == 0 {
		return DefaultLocale
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].q > candidates[b].q
	})
	return candidates[0].tag
}

// T translates using the default locale
func T(key string, params ...map[string]string) string {
	return NewLocalizer(DefaultLocale).T(key, params...)
}

// TWithLocale translates using the specified locale
func TWithLocale(locale, key string, params ...map[string]string) string {
	return NewLocalizer(locale).T(key, params...)
}

// TFromContext translates using locale from context
func TFromContext(ctx context.Context, key string, params ...map[string]string) string {
	return LocalizerFromContext(ctx).T(key, params...)
}
