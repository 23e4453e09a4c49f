package protocol

import "unicode/utf8"

// ChunkScreen splits the text of one screen into frame payloads of at most
// maxBytes. It prefers splitting right after a newline and never splits in
// the middle of a UTF-8 character. An empty screen still yields one empty
// chunk so that it occupies a frame.
func ChunkScreen(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxBytes {
			chunks = append(chunks, text)
			break
		}

		split := maxBytes
		for split > 0 && !utf8.RuneStart(text[split]) {
			split--
		}
		if split == 0 {
			// maxBytes is smaller than the leading rune; emit it whole
			_, size := utf8.DecodeRuneInString(text)
			split = size
		}

		// Walk back to the last line break; keep the newline in this chunk
		// so that concatenating the chunks restores the screen exactly.
		cut := split
		for i := split; i > 0; i-- {
			if text[i-1] == '\n' {
				cut = i
				break
			}
		}

		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}
