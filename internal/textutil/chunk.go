package textutil

import (
	"strings"
	"unicode/utf8"
)

const (
	// MessageLimit is the maximum length of a single Discord message.
	MessageLimit = 2000
	// DefaultChunkSize leaves headroom under MessageLimit for markup.
	DefaultChunkSize = 1900

	fence = "```"
)

// SplitIntoChunks splits content into pieces of at most size characters.
// It breaks on line boundaries, and a fenced code block that straddles a
// boundary is closed at the end of one chunk and reopened, with the same
// language tag, at the start of the next. Lines longer than a chunk are
// hard-split.
func SplitIntoChunks(content string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if runeLen(content) <= size {
		return []string{content}
	}

	var (
		chunks  []string
		current string
		inCode  bool
		lang    string
	)

	flush := func() {
		if current == "" {
			return
		}
		if inCode {
			current += "\n" + fence
		}
		chunks = append(chunks, current)
		current = ""
	}

	appendLine := func(line string) {
		if current == "" {
			if inCode {
				current = fence + lang + "\n" + line
			} else {
				current = line
			}
			return
		}
		current += "\n" + line
	}

	closing := len(fence) + 1

	for _, line := range strings.Split(content, "\n") {
		isFence := strings.HasPrefix(line, fence)
		opening := len(fence) + runeLen(lang) + 1

		if !isFence && runeLen(line) > size-opening-closing {
			flush()
			for _, piece := range splitRunes(line, max(size-opening-closing, 1)) {
				appendLine(piece)
				flush()
			}
			continue
		}

		// The flush that closed the previous chunk already closed the block.
		if isFence && inCode && current == "" {
			inCode = false
			continue
		}

		projected := runeLen(current) + 1 + runeLen(line)
		if current == "" {
			projected = runeLen(line)
			if inCode {
				projected += opening
			}
		}
		if inCode != isFence {
			projected += closing
		}

		if current != "" && projected > size {
			if isFence && inCode {
				flush()
				inCode = false
				continue
			}
			flush()
		}

		appendLine(line)
		if isFence {
			if !inCode {
				lang = strings.TrimSpace(line[len(fence):])
			}
			inCode = !inCode
		}
	}
	flush()

	return chunks
}

// Fits reports whether text can be sent as a single message.
func Fits(text string) bool {
	return runeLen(text) <= MessageLimit
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func splitRunes(s string, n int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
