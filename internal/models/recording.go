package models

// Channel is a single EEG signal with its label and samples in physical units
// (typically microvolts).
type Channel struct {
	Label   string
	Samples []float64
}

// Annotation is a timed event marker attached to a recording.
type Annotation struct {
	// Onset is the event start in seconds from the beginning of the recording.
	Onset float64

	// Duration is the event length in seconds, 0 for instantaneous markers.
	Duration float64

	// Label is the event description.
	Label string
}

// Recording is a multichannel EEG recording loaded from an EDF file.
type Recording struct {
	Channels    []Channel
	SampleRate  float64
	Annotations []Annotation
}

// NumChannels returns the channel count.
func (r *Recording) NumChannels() int { return len(r.Channels) }

// Duration returns the recording length in seconds, derived from the longest
// channel.
func (r *Recording) Duration() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	maxSamples := 0
	for _, ch := range r.Channels {
		if len(ch.Samples) > maxSamples {
			maxSamples = len(ch.Samples)
		}
	}
	return float64(maxSamples) / r.SampleRate
}

// ChannelByLabel returns the channel with the given label, or nil.
func (r *Recording) ChannelByLabel(label string) *Channel {
	for i := range r.Channels {
		if r.Channels[i].Label == label {
			return &r.Channels[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the recording.
func (r *Recording) Clone() *Recording {
	out := &Recording{
		Channels:    make([]Channel, len(r.Channels)),
		SampleRate:  r.SampleRate,
		Annotations: make([]Annotation, len(r.Annotations)),
	}
	copy(out.Annotations, r.Annotations)
	for i, ch := range r.Channels {
		samples := make([]float64, len(ch.Samples))
		copy(samples, ch.Samples)
		out.Channels[i] = Channel{Label: ch.Label, Samples: samples}
	}
	return out
}
