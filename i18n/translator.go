package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "field" or "entity").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"empty_string":   "can't be empty string",
		"conflict":       "fields can't be used together",
		"not_found":      "{entity} not found",
		"requires":       "Cannot use {dependents} without '{field}'",
		"invalid_type":   "invalid type",
		"invalid_format": "invalid format",
		"duplicate_key":  "duplicate key",
		"parse_error":    "parse error",
		"truncated":      "truncated",
	},
	"ja": {
		"empty_string":   "空文字列は使用できません",
		"conflict":       "同時に指定できないフィールドです",
		"not_found":      "{entity} が見つかりません",
		"requires":       "'{field}' なしで {dependents} は使用できません",
		"invalid_type":   "型が不正です",
		"invalid_format": "形式が不正です",
		"duplicate_key":  "キーが重複しています",
		"parse_error":    "解析エラー",
		"truncated":      "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator to the closest supported
// language for tag (for example "ja-JP" or an Accept-Language value).
// Unknown tags fall back to English.
func SetLanguage(tag string) {
	mu.Lock()
	defer mu.Unlock()
	currentTranslator = dictTranslator{lang: Match(tag)}
}

// Match returns the base language ("en" or "ja") that best fits tag.
func Match(tag string) string {
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
