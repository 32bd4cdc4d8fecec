package agent

const truncationMarker = '…'

// BoundReply enforces the hard reply ceiling. Text at or under the limit
// passes through unchanged; longer text is cut to limit-1 runes plus a
// truncation marker so the result is always exactly limit runes long.
func BoundReply(text string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit-1]) + string(truncationMarker)
}
