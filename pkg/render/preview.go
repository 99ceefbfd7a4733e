package render

// PreviewLength is the number of characters of a source snippet shown in the transcript.
const PreviewLength = 150

// Ellipsis is appended to every preview.
const Ellipsis = "..."

// Preview returns the display form of a source snippet: its first
// PreviewLength characters followed by Ellipsis. The ellipsis is appended
// even to short snippets. Characters are runes, so multi-byte text is
// never split mid-character.
func Preview(snippet string) string {
	r := []rune(snippet)
	if len(r) > PreviewLength {
		r = r[:PreviewLength]
	}
	return string(r) + Ellipsis
}
