package sentiment

import (
	"strings"

	"github.com/bbalet/stopwords"
)

// emojiRanges are the unicode blocks preserved during normalization so that
// expressive symbols survive as classifier features.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F700, 0x1F77F},
	{0x1F780, 0x1F7FF},
	{0x1F800, 0x1F8FF},
	{0x1F900, 0x1F9FF},
	{0x1FA00, 0x1FA6F},
	{0x1FA70, 0x1FAFF},
	{0x2702, 0x27B0},
	{0x24C2, 0x1F251},
	{0x1F004, 0x1F0CF},
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return r == 0x200D || r == 0x200B
}

func isWordRune(r rune) bool {
	return r == '_' || r == ' ' || r == '\t' || r == '\n' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// normalize lowercases, strips punctuation while keeping word characters and
// emoji, removes english stopwords, and lemmatizes the remaining tokens.
func (a *Annotator) normalize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) || isEmoji(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	cleaned := stopwords.CleanString(b.String(), "en", false)
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, a.lemmatizer.Lemma(f))
	}
	return tokens
}

// contains reports whether sentence contains the token. The lexical table
// mixes cased phrases and emoji; matching is exact, as in the mood table's
// original use.
func contains(sentence, token string) bool {
	return strings.Contains(sentence, token)
}
