package recipes

import (
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "can": {}, "do": {}, "for": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "make": {}, "me": {},
	"my": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "what": {},
	"with": {}, "you": {}, "about": {}, "should": {}, "does": {}, "from": {},
}

// tokenize lowercases text and splits it into words, dropping stopwords.
// Words are crudely stemmed so that "eggs" matches "egg" and "poaching"
// matches "poached".
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[f]; stop || len(f) < 2 {
			continue
		}
		out = append(out, stem(f))
	}
	return out
}

func stem(w string) string {
	switch {
	case len(w) > 5 && strings.HasSuffix(w, "ing"):
		return strings.TrimSuffix(w, "ing")
	case len(w) > 4 && strings.HasSuffix(w, "ed"):
		return strings.TrimSuffix(w, "ed")
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return strings.TrimSuffix(w, "s")
	}
	return w
}
