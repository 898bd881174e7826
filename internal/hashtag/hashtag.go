// Package hashtag extracts hashtags from post text and records their
// occurrences into the daily trending leaderboard.
package hashtag

import (
	"regexp"
	"strings"
)

// tagPattern matches '#' followed by 1-10 word characters, including the
// hiragana, katakana and common kanji ranges.
var tagPattern = regexp.MustCompile(`#([0-9A-Za-z_\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}]{1,10})`)

// Extract returns the unique hashtags in text, lowercased, in order of
// first occurrence.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
