// Package extract pulls the literal value a question is about (a national ID,
// a licence plate, a phone number, a device IMEI or a trailing word) out of
// the question text.
//
// Typed rules run first, in the order of the intent's entity kinds. If none
// matches, a fixed fallback cascade runs regardless of the intent.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rlch/graphplan/catalog"
)

// Rule names, reported with every match.
const (
	RuleNationalID          = "national_id"
	RulePlateMercosul       = "plate_mercosul"
	RulePlateLegacy         = "plate_legacy"
	RulePlateMercosulHyphen = "plate_mercosul_hyphen"
	RulePhone               = "phone"
	RuleDevice              = "device"
	RuleGenericNumber       = "generic_number"
	RuleLastWord            = "last_word"
)

// Patterns. Digit patterns are applied to the digits of the query only, so
// with the word boundaries they match when the total digit count fits.
var (
	nationalIDPattern = regexp.MustCompile(`\b(\d{11})\b`)
	phonePattern      = regexp.MustCompile(`\b(\d{10,11})\b`)
	devicePattern     = regexp.MustCompile(`\b(\d{15})\b`)
	genericPattern    = regexp.MustCompile(`\b(\d{3,15})\b`)

	plateMercosul       = regexp.MustCompile(`\b([A-Z]{3}[0-9][A-Z0-9][0-9]{2})\b`)
	plateLegacy         = regexp.MustCompile(`\b([A-Z]{3}-?[0-9]{4})\b`)
	plateMercosulHyphen = regexp.MustCompile(`\b([A-Z]{3}-[0-9][A-Z0-9][0-9]{2})\b`)

	nonDigit        = regexp.MustCompile(`\D`)
	trailingPunct   = regexp.MustCompile(`[.,!?]$`)
	plateSeparators = strings.NewReplacer("-", "", " ", "")
)

// minLastWordLength skips short trailing words such as "de" or "da".
const minLastWordLength = 3

// Match is an extracted value and the rule that produced it.
type Match struct {
	Value string
	Rule  string
}

// query is a question prepared once for every rule.
type query struct {
	text   string
	upper  string
	digits string
}

func prepare(text string) query {
	return query{
		text:   text,
		upper:  strings.ToUpper(text),
		digits: nonDigit.ReplaceAllString(text, ""),
	}
}

// rule is one named recognizer.
type rule struct {
	name  string
	match func(q query) (string, bool)
}

func digitRule(name string, re *regexp.Regexp) rule {
	return rule{name: name, match: func(q query) (string, bool) {
		m := re.FindStringSubmatch(q.digits)
		if m == nil {
			return "", false
		}

		return m[1], true
	}}
}

func plateRule(name string, re *regexp.Regexp) rule {
	return rule{name: name, match: func(q query) (string, bool) {
		m := re.FindStringSubmatch(q.upper)
		if m == nil {
			return "", false
		}

		return plateSeparators.Replace(m[1]), true
	}}
}

var lastWordRule = rule{name: RuleLastWord, match: func(q query) (string, bool) {
	words := strings.Fields(q.text)
	if len(words) == 0 {
		return "", false
	}

	last := words[len(words)-1]
	if utf8.RuneCountInString(last) < minLastWordLength {
		return "", false
	}

	last = trailingPunct.ReplaceAllString(last, "")

	return last, last != ""
}}

// Extractor maps entity kinds to typed rules and holds the fallback cascade.
// It has no state beyond its tables and is safe for concurrent use.
type Extractor struct {
	typed    map[catalog.EntityKind][]rule
	fallback []rule
}

// New returns an Extractor with the standard rule tables.
func New() *Extractor {
	return &Extractor{
		typed: map[catalog.EntityKind][]rule{
			catalog.KindNationalID: {digitRule(RuleNationalID, nationalIDPattern)},
			catalog.KindPlate: {
				plateRule(RulePlateMercosul, plateMercosul),
				plateRule(RulePlateLegacy, plateLegacy),
				plateRule(RulePlateMercosulHyphen, plateMercosulHyphen),
			},
			catalog.KindPhone:  {digitRule(RulePhone, phonePattern)},
			catalog.KindDevice: {digitRule(RuleDevice, devicePattern)},
		},
		fallback: []rule{
			digitRule(RulePhone, phonePattern),
			digitRule(RuleNationalID, nationalIDPattern),
			plateRule(RulePlateMercosul, plateMercosul),
			digitRule(RuleGenericNumber, genericPattern),
			lastWordRule,
		},
	}
}

// Extract finds the value for intent in text.
func (e *Extractor) Extract(text string, intent *catalog.Intent) (Match, bool) {
	var kinds []catalog.EntityKind
	if intent != nil {
		kinds = intent.Kinds()
	}

	return e.ExtractKinds(text, kinds)
}

// ExtractKinds runs the typed rules of kinds, in order, then the fallback
// cascade.
func (e *Extractor) ExtractKinds(text string, kinds []catalog.EntityKind) (Match, bool) {
	q := prepare(text)

	for _, k := range kinds {
		for _, r := range e.typed[k] {
			if v, ok := r.match(q); ok {
				return Match{Value: v, Rule: r.name}, true
			}
		}
	}

	for _, r := range e.fallback {
		if v, ok := r.match(q); ok {
			return Match{Value: v, Rule: "fallback_" + r.name}, true
		}
	}

	return Match{}, false
}
