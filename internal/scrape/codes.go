package scrape

import "regexp"

// Each of the eight extractors below targets one fixed, known passage of
// program output (spec.md §4.5 "Codes"); the regexes are grounded directly
// on the reference solution's own scraping code.

var archSpecCodeRe = regexp.MustCompile(`Here's a code for the challenge website: (.*?)\n`)
var startupCodeRe = regexp.MustCompile(`this one into the challenge website: (.*?)\n`)
var selfTestCodeRe = regexp.MustCompile(`The self-test completion code is: (.*?)\n`)
var tabletCodeRe = regexp.MustCompile(`You find yourself writing "(.*?)" on the tablet`)
var chiselCodeRe = regexp.MustCompile(`(?s)Chiseled on the wall.*?\n\n {4}(.*?)\n`)
var teleport1CodeRe = regexp.MustCompile(`you think you see a pattern in the stars\.\.\.\n\s+(.*?)\n`)
var teleport2CodeRe = regexp.MustCompile(`Someone seems to have drawn a message in the sand here:\n\s+(.*?)\n`)
var mirrorCodeRe = regexp.MustCompile(`Through the mirror, you see "(.*?)" scrawled in charcoal`)

// ArchSpecCode extracts code 1, embedded in the architecture spec's banner.
func ArchSpecCode(s string) (string, bool) { return firstGroup(archSpecCodeRe, s) }

// StartupCode extracts code 2, printed once at program start (pre-self-test).
func StartupCode(s string) (string, bool) { return firstGroup(startupCodeRe, s) }

// SelfTestCode extracts code 3, printed when the self-test completes.
func SelfTestCode(s string) (string, bool) { return firstGroup(selfTestCodeRe, s) }

// TabletCode extracts code 4, written on the tablet after `use tablet`.
func TabletCode(s string) (string, bool) { return firstGroup(tabletCodeRe, s) }

// ChiselCode extracts code 5, chiseled on a wall found during exploration.
func ChiselCode(s string) (string, bool) { return firstGroup(chiselCodeRe, s) }

// Teleport1Code extracts code 6, seen in the stars after the first teleport.
func Teleport1Code(s string) (string, bool) { return firstGroup(teleport1CodeRe, s) }

// Teleport2Code extracts code 7, drawn in sand after the bypassed teleport.
func Teleport2Code(s string) (string, bool) { return firstGroup(teleport2CodeRe, s) }

// MirrorCode extracts the raw (pre-reflection) mirror passage text; callers
// apply Reflect to the result to recover code 8.
func MirrorCode(s string) (string, bool) { return firstGroup(mirrorCodeRe, s) }

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// reflectPairs is the default (extended) involution used by Reflect,
// resolving spec.md's Open Question on which variant to use: {d<->b, p<->q,
// 2<->5}. It is fixed; a configured involution (such as the minimal
// {d<->b, p<->q} variant from internal/config) goes through ReflectWith.
var reflectPairs = map[rune]rune{
	'd': 'b', 'b': 'd',
	'p': 'q', 'q': 'p',
	'2': '5', '5': '2',
}

// Reflect reverses s and swaps each rune under reflectPairs,
// recovering the true text of the mirror passage (spec.md §4.5).
func Reflect(s string) string {
	return ReflectWith(s, reflectPairs)
}

// ReflectWith is Reflect parameterized by an explicit involution map, for
// callers using internal/config's minimal-variant override.
func ReflectWith(s string, pairs map[rune]rune) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, r := range runes {
		rev := runes[len(runes)-1-i]
		if swapped, ok := pairs[rev]; ok {
			out[i] = swapped
		} else {
			out[i] = rev
		}
	}
	return string(out)
}
