// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/playsched/audio"
	"github.com/ik5/playsched/internal/pcm"
)

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

type Decoder struct{}

// Decode reads the WAV header from r. The returned source seeks by
// re-reading from the start of the PCM data, so r is buffered in memory
// unless it is already an io.ReadSeeker.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	var info *gowav.Decoder
	open := func() (pcm.Reader, error) {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewinding wav: %w", err)
		}
		d := gowav.NewDecoder(rs)
		if !d.IsValidFile() {
			return nil, ErrNotWavFile
		}
		if d.WavAudioFormat != wavFormatPCM {
			return nil, ErrOnlyPCMSupported
		}
		if err := d.FwdToPCM(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
		}
		info = d
		return d, nil
	}

	if _, err := open(); err != nil {
		return nil, err
	}

	frames := int64(-1)
	if frameSize := int64(info.NumChans) * int64(info.BitDepth/8); frameSize > 0 {
		frames = info.PCMLen() / frameSize
	}

	src, err := pcm.NewSource(open, int(info.BitDepth), frames)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return src, nil
}
