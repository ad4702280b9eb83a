package replay

import (
	lzstring "github.com/daku10/go-lz-string"
)

// decompressURI inverts lz-string's compressToEncodedURIComponent. ok is
// false when the input does not decompress to any text.
func decompressURI(s string) (text string, ok bool) {
	text, err := lzstring.DecompressFromEncodedURIComponent(s)
	if err != nil || text == "" {
		return "", false
	}
	return text, true
}

func compressURI(text string) (string, error) {
	return lzstring.CompressToEncodedURIComponent(text)
}
