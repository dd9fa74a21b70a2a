// Package parser turns free-text chat messages into workout records.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fitleague/internal/store"
)

// Parsed is the structured content of a workout message
type Parsed struct {
	Type    store.ActivityType
	Metrics store.Metrics
}

type vocabulary struct {
	typ store.ActivityType
	re  *regexp.Regexp
}

// Categories are tried in this order and the first match wins, so a message
// mentioning both "corrida" and "bike" is a run. Keywords are matched after
// lower-casing and stripping accents.
var vocabularies = []vocabulary{
	{store.TypeRun, regexp.MustCompile(`\bcorr(?:i|ida|idas|endo)\b|run|🏃`)},
	{store.TypeBike, regexp.MustCompile(`bike|cicl|pedal|🚴`)},
	{store.TypeSwim, regexp.MustCompile(`natacao|swim|\bnadei\b|🏊`)},
	{store.TypeStrength, regexp.MustCompile(`forca|muscul|academia|🏋`)},
	{store.TypeOther, regexp.MustCompile(`muay|boxe|luta|yoga|pilates`)},
}

var (
	kmRe   = regexp.MustCompile(`(?:^|[^\d:.,])(\d+(?:[.,]\d+)?)\s?(?:km|k)\b`)
	mRe    = regexp.MustCompile(`(?:^|\D)(\d{3,5})\s?m\b`)
	minRe  = regexp.MustCompile(`(\d+)\s?min(?:utos?)?\b`)
	paceRe = regexp.MustCompile(`\b(\d{1,2}:\d{2})\s*/?\s*km\b`)
)

// Classify extracts a workout from a message. It returns false for text
// that carries neither a category keyword nor any numeric signal.
func Classify(text string) (Parsed, bool) {
	t := normalize(text)
	if strings.TrimSpace(t) == "" {
		return Parsed{}, false
	}

	var typ store.ActivityType
	for _, v := range vocabularies {
		if v.re.MatchString(t) {
			typ = v.typ
			break
		}
	}

	km := number(kmRe, t)
	m := number(mRe, t)
	mins := number(minRe, t)
	var pace string
	if match := paceRe.FindStringSubmatch(t); match != nil {
		pace = match[1]
	}

	if typ == "" && km == nil && m == nil && mins == nil && pace == "" {
		return Parsed{}, false
	}

	if typ == "" {
		switch {
		case km != nil:
			typ = store.TypeRun
		case m != nil:
			typ = store.TypeSwim
		default:
			typ = store.TypeOther
		}
	}

	return Parsed{
		Type: typ,
		Metrics: store.Metrics{
			Km:   km,
			M:    m,
			Min:  mins,
			Pace: pace,
		},
	}, true
}

// normalize lower-cases text and strips combining marks so "Natação" and
// "natacao" match the same keyword.
func normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

func number(re *regexp.Regexp, t string) *float64 {
	match := re.FindStringSubmatch(t)
	if match == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}
