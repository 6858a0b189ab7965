// Package edf reads European Data Format recordings (EDF and EDF+).
// The fixed-width ASCII header and per-signal subheaders are parsed, the
// 16-bit little-endian samples are scaled to physical units, and EDF+
// timestamped annotation lists (TALs) are decoded into event markers.
package edf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"neuroviz/internal/models"
)

// ErrBadHeader reports a malformed EDF header.
var ErrBadHeader = errors.New("edf: malformed header")

const (
	globalHeaderSize = 256
	annotationLabel  = "EDF Annotations"
)

// signalHeader holds the per-signal metadata needed for decoding.
type signalHeader struct {
	label            string
	physMin, physMax float64
	digMin, digMax   float64
	samplesPerRecord int
	isAnnotation     bool
}

// ReadFile loads an EDF recording from path.
func ReadFile(path string) (*models.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("edf: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes an EDF stream.
func Read(r io.Reader) (*models.Recording, error) {
	head := make([]byte, globalHeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("edf: read header: %w", err)
	}

	field := func(off, n int) string {
		return strings.TrimSpace(string(head[off : off+n]))
	}

	numRecords, err := strconv.Atoi(field(236, 8))
	if err != nil {
		return nil, fmt.Errorf("%w: record count %q", ErrBadHeader, field(236, 8))
	}
	recordDuration, err := strconv.ParseFloat(field(244, 8), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: record duration %q", ErrBadHeader, field(244, 8))
	}
	numSignals, err := strconv.Atoi(field(252, 4))
	if err != nil || numSignals <= 0 {
		return nil, fmt.Errorf("%w: signal count %q", ErrBadHeader, field(252, 4))
	}
	if numRecords <= 0 {
		return nil, fmt.Errorf("edf: recording contains no data records")
	}

	signals, err := readSignalHeaders(r, numSignals)
	if err != nil {
		return nil, err
	}

	rec := &models.Recording{}

	// The common case has one uniform sampling rate across data channels.
	for _, s := range signals {
		if !s.isAnnotation && recordDuration > 0 {
			rec.SampleRate = float64(s.samplesPerRecord) / recordDuration
			break
		}
	}

	channelIdx := make([]int, 0, numSignals)
	for _, s := range signals {
		if s.isAnnotation {
			continue
		}
		channelIdx = append(channelIdx, len(rec.Channels))
		rec.Channels = append(rec.Channels, models.Channel{
			Label:   s.label,
			Samples: make([]float64, 0, numRecords*s.samplesPerRecord),
		})
	}

	// Decode record by record: each record interleaves every signal's block.
	for rn := 0; rn < numRecords; rn++ {
		ci := 0
		for _, s := range signals {
			raw := make([]byte, s.samplesPerRecord*2)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("edf: read record %d: %w", rn, err)
			}

			if s.isAnnotation {
				rec.Annotations = append(rec.Annotations, parseTALs(raw)...)
				continue
			}

			scale := 1.0
			if s.digMax != s.digMin {
				scale = (s.physMax - s.physMin) / (s.digMax - s.digMin)
			}
			ch := &rec.Channels[channelIdx[ci]]
			for i := 0; i < s.samplesPerRecord; i++ {
				dig := float64(int16(binary.LittleEndian.Uint16(raw[i*2:])))
				ch.Samples = append(ch.Samples, (dig-s.digMin)*scale+s.physMin)
			}
			ci++
		}
	}

	return rec, nil
}

func readSignalHeaders(r io.Reader, n int) ([]signalHeader, error) {
	// Per-signal headers are stored column-wise: all labels, then all
	// transducer types, and so on.
	widths := []int{16, 80, 8, 8, 8, 8, 8, 80, 8, 32}
	fields := make([][]string, len(widths))
	for fi, w := range widths {
		buf := make([]byte, w*n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("edf: read signal headers: %w", err)
		}
		fields[fi] = make([]string, n)
		for si := 0; si < n; si++ {
			fields[fi][si] = strings.TrimSpace(string(buf[si*w : (si+1)*w]))
		}
	}

	parseF := func(s, what string, si int) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: signal %d %s %q", ErrBadHeader, si, what, s)
		}
		return v, nil
	}

	signals := make([]signalHeader, n)
	for si := 0; si < n; si++ {
		var s signalHeader
		var err error
		s.label = fields[0][si]
		s.isAnnotation = s.label == annotationLabel
		if s.physMin, err = parseF(fields[3][si], "physical minimum", si); err != nil {
			return nil, err
		}
		if s.physMax, err = parseF(fields[4][si], "physical maximum", si); err != nil {
			return nil, err
		}
		if s.digMin, err = parseF(fields[5][si], "digital minimum", si); err != nil {
			return nil, err
		}
		if s.digMax, err = parseF(fields[6][si], "digital maximum", si); err != nil {
			return nil, err
		}
		spr, err := strconv.Atoi(fields[8][si])
		if err != nil || spr <= 0 {
			return nil, fmt.Errorf("%w: signal %d sample count %q", ErrBadHeader, si, fields[8][si])
		}
		s.samplesPerRecord = spr
		signals[si] = s
	}
	return signals, nil
}

// parseTALs decodes EDF+ timestamped annotation lists from one annotation
// signal block. A TAL is "+onset[\x15duration]\x14label\x14...\x00"; the
// record keep-alive TAL (empty label) is skipped.
func parseTALs(raw []byte) []models.Annotation {
	var out []models.Annotation
	for _, tal := range strings.Split(string(raw), "\x00") {
		if tal == "" {
			continue
		}
		parts := strings.Split(tal, "\x14")
		if len(parts) < 2 {
			continue
		}

		timing := parts[0]
		duration := 0.0
		if i := strings.IndexByte(timing, '\x15'); i >= 0 {
			if d, err := strconv.ParseFloat(timing[i+1:], 64); err == nil {
				duration = d
			}
			timing = timing[:i]
		}
		onset, err := strconv.ParseFloat(timing, 64)
		if err != nil {
			continue
		}

		for _, label := range parts[1:] {
			if label == "" {
				continue
			}
			out = append(out, models.Annotation{
				Onset:    onset,
				Duration: duration,
				Label:    label,
			})
		}
	}
	return out
}
