// Package classify tags extracted structs as Primary or Component.
//
// A struct is Primary when its name equals its file stem split on '_',
// title-cased per segment and concatenated: user_profile.rs declares
// UserProfile. Every other struct in the domain is a Component. Files with no
// matching struct simply contribute Components; nothing is synthesized.
package classify

import (
	"strings"
	"unicode"

	"github.com/teranos/buildamp/model"
)

// StemToTypeName applies the file naming transform: user_profile -> UserProfile.
// Empty segments (leading, trailing or doubled separators) are dropped.
func StemToTypeName(stem string) string {
	var sb strings.Builder
	for _, seg := range strings.Split(stem, "_") {
		if seg == "" {
			continue
		}
		runes := []rune(seg)
		sb.WriteRune(unicode.ToUpper(runes[0]))
		sb.WriteString(string(runes[1:]))
	}
	return sb.String()
}

// Role classifies one struct declared in a file with the given stem.
func Role(fileStem, structName string) model.Role {
	if StemToTypeName(fileStem) == structName {
		return model.Primary
	}
	return model.Component
}

// All classifies every struct by its own declaring file, preserving order.
func All(structs []model.ParsedStruct) []model.Classified {
	out := make([]model.Classified, 0, len(structs))
	for _, s := range structs {
		out = append(out, model.Classified{
			ParsedStruct: s,
			Role:         Role(s.FileStem(), s.Name),
		})
	}
	return out
}
