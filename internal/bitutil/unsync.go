package bitutil

// Sync applies ID3v2 unsynchronization: every $FF byte gets a $00 stuffed
// after it, unconditionally, so that no $FF byte in tag data can ever be
// followed by a byte with its top three bits set ($E0-$FF) and be
// misread as an MPEG frame sync by a naive scanner.
func Sync(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/32+1)
	for _, c := range b {
		out = append(out, c)
		if c == 0xFF {
			out = append(out, 0x00)
		}
	}
	return out
}

// Desync reverses Sync: every $00 immediately following an $FF is
// dropped. Desync(Sync(b)) == b for all b (spec §9 "Unsynchronisation
// round-trip").
func Desync(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}
