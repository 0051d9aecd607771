package lang

import (
	"fmt"
	"strings"
)

type Language struct {
	Code string
	Name string
}

var catalog = []Language{
	{Code: "it", Name: "Italian"},
	{Code: "en", Name: "English"},
	{Code: "id", Name: "Indonesian"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "ru", Name: "Russian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "th", Name: "Thai"},
	{Code: "vi", Name: "Vietnamese"},
}

// All returns the catalog in display order.
func All() []Language {
	return append([]Language(nil), catalog...)
}

func Lookup(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range catalog {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Validate checks a source/target pair against the catalog and returns the
// normalized codes.
func Validate(source, target string) (string, string, error) {
	src, ok := Lookup(source)
	if !ok {
		return "", "", fmt.Errorf("unsupported source language %q (see: rpgm-translator langs)", source)
	}
	dst, ok := Lookup(target)
	if !ok {
		return "", "", fmt.Errorf("unsupported target language %q (see: rpgm-translator langs)", target)
	}
	return src.Code, dst.Code, nil
}
