package ocr

import "strings"

// CharClass is the kind of text a cell is expected to hold.
type CharClass int

const (
	// Letters is expected in choice-label cells.
	Letters CharClass = iota
	// Digits is expected in question-number header cells.
	Digits
)

// Whitelists passed to the recognizer for constrained retries.
const (
	DigitWhitelist  = "0123456789"
	LetterWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func (c CharClass) String() string {
	if c == Digits {
		return "digits"
	}
	return "letters"
}

// Whitelist returns the characters a constrained retry may produce.
func (c CharClass) Whitelist() string {
	if c == Digits {
		return DigitWhitelist
	}
	return LetterWhitelist
}

// Matches reports whether s is non-empty and made only of the class's
// characters.
func (c CharClass) Matches(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch c {
		case Digits:
			if ch < '0' || ch > '9' {
				return false
			}
		default:
			if ch < 'A' || ch > 'Z' {
				return false
			}
		}
	}
	return true
}

// confusions folds characters Tesseract commonly reads in place of digits.
var confusions = strings.NewReplacer(
	"|", "1", "!", "1", "l", "1", "I", "1",
	"O", "0", "o", "0",
	"S", "5", "s", "5",
	"Z", "2", "z", "2",
	"B", "8",
	"G", "6",
	"D", "0",
)

// CleanCellText normalises raw OCR output of a numeric cell: whitespace is
// removed, look-alike characters are folded to digits, anything that is not
// an ASCII letter or digit is dropped and the rest is upper-cased.
//
// The fold runs again after upper-casing (so "b" ends up as "8" just like
// "B"), which makes the function idempotent.
func CleanCellText(text string) string {
	s := strings.Join(strings.Fields(text), "")
	s = confusions.Replace(s)
	s = strings.ToUpper(keepAlnum(s))
	return confusions.Replace(s)
}

// CleanLabelText normalises raw OCR output of a letter cell: whitespace and
// non-alphanumerics are dropped and the rest is upper-cased. Look-alike
// folding is skipped because it would turn labels such as "B" into digits.
func CleanLabelText(text string) string {
	return strings.ToUpper(keepAlnum(strings.Join(strings.Fields(text), "")))
}

// Clean applies the cleanup that fits the expected class.
func (c CharClass) Clean(text string) string {
	if c == Digits {
		return CleanCellText(text)
	}
	return CleanLabelText(text)
}

func keepAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			b.WriteByte(ch)
		}
	}
	return b.String()
}
