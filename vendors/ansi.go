package vendors

import "regexp"

// ansiRegex matches ANSI escape sequences (colors, cursor movement, erase).
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes terminal escape codes from CLI output. Some OLT
// firmwares color their prompts and tables, which breaks line matching.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
