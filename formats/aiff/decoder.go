// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"

	"github.com/ik5/playsched/audio"
	"github.com/ik5/playsched/internal/pcm"
)

type Decoder struct{}

// Decode reads the AIFF header from r. go-audio requires an io.ReadSeeker,
// so other readers are buffered in memory.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	var info *aiff.Decoder
	open := func() (pcm.Reader, error) {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewinding aiff: %w", err)
		}
		dec := aiff.NewDecoder(rs)
		if !dec.IsValidFile() {
			return nil, ErrNotAiffFile
		}
		dec.ReadInfo()
		if dec.Format() == nil {
			return nil, ErrUnsupportedAiffLayout
		}
		info = dec
		return dec, nil
	}

	if _, err := open(); err != nil {
		return nil, err
	}

	bitDepth := int(info.BitDepth)
	if !pcm.Supported(bitDepth) {
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitDepth)
	}

	src, err := pcm.NewSource(open, bitDepth, int64(info.NumSampleFrames))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAiffLayout, err)
	}
	return src, nil
}
