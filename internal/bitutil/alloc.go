package bitutil

import "github.com/BSteffaniak/lofty-go/internal/types"

// DefaultAllocationLimit mirrors lofty-rs's default (16 MiB): any single
// length-prefixed read (an ID3v2 frame body, a FLAC PICTURE block, an
// APEv2 item value) that declares more than this many bytes is rejected
// as ErrTooMuchData rather than handed to make([]byte, n), so a corrupted
// or adversarial length field can't be used to force a huge allocation.
const DefaultAllocationLimit = 16 * 1024 * 1024

// Guard checks a declared length against limit before the caller
// allocates a buffer for it. limit <= 0 means "no limit" (matches
// ParseOptions.AllocationLimit's documented zero-value meaning).
func Guard(declared int64, limit int64, path, what string) error {
	if limit <= 0 {
		return nil
	}
	if declared < 0 || declared > limit {
		return types.NewError(types.ErrTooMuchData, path,
			"%s declared %d bytes, exceeding the %d byte allocation limit", what, declared, limit)
	}
	return nil
}
