package samplesource

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Format identifies the interleaved IQ sample encoding of a recorded file.
type Format int

const (
	FormatInt8IQ Format = iota
	FormatUint8IQ
	FormatFloat32IQ
)

func (f Format) bytesPerSample() int {
	switch f {
	case FormatInt8IQ, FormatUint8IQ:
		return 2
	case FormatFloat32IQ:
		return 8
	default:
		return 0
	}
}

// FileSource reads a recorded interleaved-IQ capture from a buffered
// reader, converting each sample to complex128 on the fly.
type FileSource struct {
	r          *bufio.Reader
	format     Format
	sampleRate float64
	index      uint64
	closer     io.Closer
}

// NewFileSource wraps r (typically an *os.File) as a Source. closer, if
// non-nil, is closed by Close.
func NewFileSource(r io.Reader, closer io.Closer, format Format, sampleRateHz float64) *FileSource {
	return &FileSource{
		r:          bufio.NewReaderSize(r, 1<<20),
		format:     format,
		sampleRate: sampleRateHz,
		closer:     closer,
	}
}

func (f *FileSource) SampleRate() float64 { return f.sampleRate }
func (f *FileSource) Index() uint64       { return f.index }

// Close releases the underlying file handle, if any.
func (f *FileSource) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Next reads up to n samples, returning ErrExhausted once the underlying
// reader is at EOF with no bytes delivered.
func (f *FileSource) Next(n int) ([]complex128, error) {
	bps := f.format.bytesPerSample()
	if bps == 0 {
		return nil, fmt.Errorf("samplesource: unknown format %d", f.format)
	}

	buf := make([]byte, n*bps)
	read, err := io.ReadFull(f.r, buf)
	if read == 0 {
		if err != nil {
			return nil, ErrExhausted
		}
	}

	samples := make([]complex128, read/bps)
	for i := range samples {
		off := i * bps
		samples[i] = f.decode(buf[off : off+bps])
	}
	f.index += uint64(len(samples))

	if err != nil && err != io.ErrUnexpectedEOF {
		return samples, nil
	}
	return samples, nil
}

func (f *FileSource) decode(b []byte) complex128 {
	switch f.format {
	case FormatInt8IQ:
		return complex(float64(int8(b[0])), float64(int8(b[1])))
	case FormatUint8IQ:
		return complex(float64(int(b[0])-128), float64(int(b[1])-128))
	case FormatFloat32IQ:
		i := math.Float32frombits(binary.LittleEndian.Uint32(b[0:4]))
		q := math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))
		return complex(float64(i), float64(q))
	default:
		return 0
	}
}
