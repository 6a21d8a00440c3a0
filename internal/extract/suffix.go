package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var honorificPattern = regexp.MustCompile(`^(Prof|Professor|Dr|Mr|Mrs|Ms|Miss|Sir|Dame)\b`)

// trailingSuffixPattern recognizes a comma-delimited run of short credential
// tokens at the end of a name line ("John Smith, MBE, FRS").
var trailingSuffixPattern = regexp.MustCompile(
	`(,?\s+)((?:[A-Za-z][A-Za-z.]{1,10}|[A-Z]{1,4}\d*)(?:\s*,\s*(?:[A-Za-z][A-Za-z.]{1,10}|[A-Z]{1,4}\d*))*)$`,
)

var suffixWords = map[string]struct{}{
	"hons": {}, "honours": {}, "honors": {}, "jr": {}, "sr": {},
}

var knownCredentials = map[string]struct{}{
	"phd": {}, "md": {}, "mres": {}, "mres.": {}, "msc": {}, "ma": {}, "ba": {}, "bsc": {},
	"meng": {}, "meng.": {}, "mph": {}, "mrc": {}, "mrcp": {}, "mrcs": {}, "mbe": {}, "obe": {},
	"cbe": {}, "frs": {}, "frsc": {}, "fhea": {}, "sfhea": {}, "afhea": {}, "mbbs": {},
	"bmbch": {}, "dphil": {}, "engd": {}, "mdr": {}, "llb": {}, "llm": {}, "jd": {}, "dvm": {},
	"dds": {}, "dmd": {}, "pharmd": {}, "mba": {}, "mpa": {}, "mpp": {}, "mfa": {}, "mme": {},
	"mphys": {}, "msci": {}, "mchem": {}, "mmed": {}, "mclin": {},
}

// isCredentialToken reports whether a trailing name token looks like an
// academic credential rather than part of the surname.
func isCredentialToken(token string) bool {
	token = strings.Trim(strings.TrimSpace(token), ",")
	if token == "" {
		return false
	}
	if strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")") {
		return true
	}
	lower := strings.ToLower(token)
	if _, ok := suffixWords[lower]; ok {
		return true
	}
	if _, ok := knownCredentials[lower]; ok {
		return true
	}
	if strings.ContainsFunc(token, unicode.IsDigit) {
		return true
	}
	if strings.Contains(token, ".") {
		return true
	}

	runes := []rune(token)
	upper := 0
	lowerLetters := 0
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			} else {
				lowerLetters++
			}
		}
	}
	if letters > 0 && lowerLetters == 0 && len(runes) <= 6 {
		return true
	}
	if len(runes) <= 4 && upper >= 2 {
		return true
	}
	return false
}

// SplitNameLine splits a raw heading line into honorific title, bare name,
// and credential suffix. Credential tokens are consumed greedily from the
// end; when none match, a trailing suffix is only recognized if it is
// explicitly comma-delimited, which avoids misclassifying real surnames.
func SplitNameLine(line string) (title, name, suffix string) {
	line = CleanText(line)

	if m := honorificPattern.FindStringSubmatchIndex(line); m != nil {
		title = line[m[2]:m[3]]
		line = strings.TrimSpace(line[m[1]:])
	}

	raw := strings.Fields(line)
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = strings.Trim(t, ",")
	}

	i := len(tokens) - 1
	for i >= 0 && isCredentialToken(tokens[i]) {
		i--
	}

	if i < len(tokens)-1 {
		// Rebuild the suffix preserving the comma delimiters of the source.
		var b strings.Builder
		for j := i + 1; j < len(tokens); j++ {
			if j > i+1 {
				if strings.HasSuffix(raw[j-1], ",") {
					b.WriteString(", ")
				} else {
					b.WriteString(" ")
				}
			}
			b.WriteString(tokens[j])
		}
		suffix = CleanText(b.String())
		name = CleanText(strings.Join(tokens[:i+1], " "))
		return title, name, suffix
	}

	name = line
	if strings.Contains(name, ",") {
		if m := trailingSuffixPattern.FindStringSubmatchIndex(name); m != nil {
			parts := strings.Split(name[m[4]:m[5]], ",")
			cleaned := parts[:0]
			for _, p := range parts {
				if p = CleanText(p); p != "" {
					cleaned = append(cleaned, p)
				}
			}
			suffix = strings.Join(cleaned, ", ")
			name = strings.TrimSpace(name[:m[0]])
		}
	}
	return title, name, suffix
}
