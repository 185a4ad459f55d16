// Package scrape extracts structured information — exits, items, reward
// codes — from the VM's output buffer by regex, and implements the mirror
// passage's reflection transform (spec.md §4.5).
package scrape

import (
	"fmt"
	"regexp"
)

// These mirror the reference solution's own two-pass scrape (solve_all.py
// find_exits/find_items): a DOTALL search captures the whole list block,
// then a separate per-line regex pulls out each "- <item>" entry.
var exitsRe = regexp.MustCompile(`(?s)There (?:is|are) \d+ exits?:\n(.*)\nWhat do you do\?`)
var itemsRe = regexp.MustCompile(`(?s)Things of interest here:\n(.*?)\n\n`)
var listItemRe = regexp.MustCompile(`(?m)^- (.+)$`)

// ErrNoExits means the output does not contain a recognizable exits block.
var ErrNoExits = fmt.Errorf("scrape: no exits block found in output")

// ErrNoItems means the output does not contain a recognizable items block.
var ErrNoItems = fmt.Errorf("scrape: no items block found in output")

// ParseExits extracts the ordered list of exit direction tokens from a room
// description (spec.md §4.5 "Exits").
func ParseExits(output string) ([]string, error) {
	m := exitsRe.FindStringSubmatch(output)
	if m == nil {
		return nil, ErrNoExits
	}
	return listItems(m[1]), nil
}

// ParseItems extracts the ordered list of item names visible in a room
// description (spec.md §4.5 "Items").
func ParseItems(output string) ([]string, error) {
	m := itemsRe.FindStringSubmatch(output)
	if m == nil {
		return nil, ErrNoItems
	}
	return listItems(m[1]), nil
}

func listItems(block string) []string {
	matches := listItemRe.FindAllStringSubmatch(block, -1)
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, m[1])
	}
	return items
}
