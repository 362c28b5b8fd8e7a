// SPDX-License-Identifier: EPL-2.0

package playsched

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/playsched/audio"
	"github.com/ik5/playsched/formats/aiff"
	"github.com/ik5/playsched/formats/mp3"
	"github.com/ik5/playsched/formats/vorbis"
	"github.com/ik5/playsched/formats/wav"
)

// DefaultRegistry returns a registry with every bundled decoder, keyed by file
// extension.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	return reg
}

// OpenFile decodes the file at path with the decoder registered for its
// extension. The file stays open for seeking; close it once the source is no
// longer read.
func OpenFile(reg *audio.Registry, path string) (audio.Source, *os.File, error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	src, err := reg.Decode(format, f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, f, nil
}
