// Package normalize cleans raw stop and street names from the transit
// authority exports: casing, abbreviation expansion and bracket
// handling. All functions are pure; cleaning an already-clean name is
// a no-op.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	routeQualifierRe = regexp.MustCompile(`\(M\d?\)\s*`)
	bracketRe        = regexp.MustCompile(`\(([^)]+)\)`)
	bracketSpanRe    = regexp.MustCompile(`\s?\([^)]+\)\s?`)
	delimiterRe      = regexp.MustCompile(`[/-]`)
	spacesRe         = regexp.MustCompile(`\s+`)
)

func titleCase(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	head := string(unicode.ToUpper(runes[0]))
	return head + strings.ToLower(string(runes[1:]))
}

func processWord(word string) string {
	upper := strings.ToUpper(word)
	if uppercaseWords[upper] {
		return upper
	}
	if expanded, found := streetTypes[upper]; found {
		return expanded
	}
	return titleCase(word)
}

func processWords(span string) string {
	words := strings.Split(span, " ")
	for i, w := range words {
		words[i] = processWord(w)
	}
	return strings.Join(words, " ")
}

// Splits s around matches of re, keeping the matches as their own
// elements.
func splitKeep(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringIndex(s, -1)
	parts := []string{}
	prev := 0
	for _, m := range matches {
		if m[0] > prev {
			parts = append(parts, s[prev:m[0]])
		}
		parts = append(parts, s[m[0]:m[1]])
		prev = m[1]
	}
	if prev < len(s) {
		parts = append(parts, s[prev:])
	}
	return parts
}

// CleanStreetName normalizes a raw street name: street-type
// abbreviations are expanded, everything else is title-cased.
func CleanStreetName(street string) string {
	if street == "" {
		return street
	}

	street = strings.TrimSpace(street)

	words := strings.Split(street, " ")
	for i, word := range words {
		upper := strings.ToUpper(word)
		if expanded, found := streetTypes[upper]; found {
			words[i] = expanded
			continue
		}
		words[i] = titleCase(word)
	}

	return strings.Join(words, " ")
}

// CleanStopName normalizes a raw stop name. Route-qualifier prefixes
// like "(M)" or "(M1)" are stripped. Bracketed spans are processed on
// their own: a single letter is kept uppercase (disambiguation
// suffix), anything longer is word-processed. Outside brackets the
// name is split on "/" and "-" and each sub-span word-processed
// independently.
func CleanStopName(name string) string {
	if name == "" {
		return name
	}

	name = strings.TrimSpace(name)
	name = routeQualifierRe.ReplaceAllString(name, "")

	processed := bracketRe.ReplaceAllStringFunc(name, func(match string) string {
		inner := strings.TrimSpace(bracketRe.FindStringSubmatch(match)[1])
		if len([]rune(inner)) == 1 {
			return " (" + strings.ToUpper(inner) + ") "
		}
		return " (" + processWords(inner) + ") "
	})

	parts := splitKeep(bracketSpanRe, processed)
	for i, part := range parts {
		if strings.Contains(part, "(") && strings.Contains(part, ")") {
			continue
		}
		subparts := splitKeep(delimiterRe, part)
		for j, sub := range subparts {
			if sub == "/" || sub == "-" {
				continue
			}
			subparts[j] = processWords(sub)
		}
		parts[i] = strings.Join(subparts, "")
	}

	return strings.TrimSpace(spacesRe.ReplaceAllString(strings.Join(parts, ""), " "))
}
