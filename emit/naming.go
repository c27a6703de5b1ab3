package emit

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// Handles acronyms (e.g., "HTTPSConnection" -> "https_connection").
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if i > 0 && unicode.IsUpper(r) {
			// An uppercase run is one word unless the next rune starts a new one
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if !prevUpper || nextLower {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// ToPascalCase converts snake_case or kebab-case to PascalCase
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		result.WriteRune(unicode.ToUpper(runes[0]))
		result.WriteString(string(runes[1:]))
	}

	return result.String()
}

// ToCamelCase converts snake_case or kebab-case to camelCase
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if pascal == "" {
		return pascal
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Pluralize applies the collection naming rule:
// y -> ies, s/sh/ch/x/z -> +es, otherwise +s.
func Pluralize(s string) string {
	switch {
	case strings.HasSuffix(s, "y"):
		return strings.TrimSuffix(s, "y") + "ies"
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "sh"), strings.HasSuffix(s, "ch"),
		strings.HasSuffix(s, "x"), strings.HasSuffix(s, "z"):
		return s + "es"
	}
	return s + "s"
}

// TableName is the storage collection for a model: UserProfile -> user_profiles.
func TableName(modelName string) string {
	return Pluralize(ToSnakeCase(modelName))
}

var elmReserved = map[string]bool{
	"if": true, "then": true, "else": true, "case": true, "of": true,
	"let": true, "in": true, "type": true, "module": true, "where": true,
	"import": true, "exposing": true, "as": true, "port": true,
}

// ElmField is the Elm record field for a source field name: created_at -> createdAt.
// Reserved words get a trailing underscore.
func ElmField(name string) string {
	f := ToCamelCase(name)
	if elmReserved[f] {
		return f + "_"
	}
	return f
}

// LowerFirst lowercases the first rune.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
