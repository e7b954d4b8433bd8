package ogg

// builtPage is an intermediate, header-field-free page: just the
// segment table and payload bytes produced by lacing, plus whether its
// first segment continues a packet begun on a previous page.
type builtPage struct {
	continued bool
	segments  []byte
	data      []byte
}

// lacePackets splits packets into one or more Ogg pages following the
// standard lacing rule: each packet is segmented into 255-byte pieces,
// terminated by a segment shorter than 255 (or, for an exact multiple,
// a trailing zero-length segment), and a page holds at most 255
// segments. Grounded on the Ogg encapsulation spec's packet-to-segment
// algorithm, since no example repo writes Ogg pages.
func lacePackets(packets [][]byte) []builtPage {
	var pages []builtPage
	var segs []byte
	var data []byte
	continued := false

	emit := func() {
		pages = append(pages, builtPage{continued: continued, segments: segs, data: data})
		segs = nil
		data = nil
		continued = false
	}

	for _, pkt := range packets {
		remaining := pkt
		for {
			if len(segs) == 255 {
				emit()
				continued = len(remaining) < len(pkt)
			}
			take := min(len(remaining), 255)
			segs = append(segs, byte(take))
			data = append(data, remaining[:take]...)
			remaining = remaining[take:]

			if take < 255 {
				break
			}
			if len(remaining) == 0 {
				if len(segs) == 255 {
					emit()
					continued = true
				}
				segs = append(segs, 0)
				break
			}
		}
	}

	if len(segs) > 0 {
		emit()
	}

	return pages
}
