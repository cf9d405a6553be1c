package ui

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

// Tone is a single beep in a chime.
type Tone struct {
	Frequency float64
	Duration  time.Duration
}

// The watch screen's chimes. Each outcome gets a distinct shape so it is
// audible without looking at the terminal: one mid tone when watching
// starts, two rising tones for a clean scan, one long low tone for
// findings and a descending run for critical findings.
var (
	chimeWatchStarted = []Tone{{Frequency: 800, Duration: 200 * time.Millisecond}}
	chimeCleanScan    = []Tone{
		{Frequency: 1000, Duration: 100 * time.Millisecond},
		{Frequency: 1200, Duration: 100 * time.Millisecond},
	}
	chimeIssuesFound   = []Tone{{Frequency: 400, Duration: 400 * time.Millisecond}}
	chimeCriticalAlert = []Tone{
		{Frequency: 900, Duration: 150 * time.Millisecond},
		{Frequency: 800, Duration: 150 * time.Millisecond},
		{Frequency: 700, Duration: 150 * time.Millisecond},
		{Frequency: 600, Duration: 150 * time.Millisecond},
	}
)

// Beeper plays a single tone. The real implementation calls the system
// beep; tests substitute a silent recorder.
type Beeper interface {
	Beep(frequency float64, duration time.Duration) error
}

// systemBeeper plays tones through beeep.
type systemBeeper struct{}

func (systemBeeper) Beep(frequency float64, duration time.Duration) error {
	return beeep.Beep(frequency, int(duration.Milliseconds()))
}

// SoundConfig holds sound notification settings
type SoundConfig struct {
	Enabled bool
	ToneGap time.Duration // pause between the tones of a chime
}

// DefaultSoundConfig returns the sound settings the watch screen starts with
func DefaultSoundConfig() SoundConfig {
	return SoundConfig{
		Enabled: true,
		ToneGap: 50 * time.Millisecond,
	}
}

// SoundNotifier plays the watch screen's audio cues. Chimes run on their
// own goroutine so a slow audio backend cannot stall the UI loop.
type SoundNotifier struct {
	mu      sync.Mutex
	enabled bool
	gap     time.Duration
	beeper  Beeper
}

// NewSoundNotifier creates a notifier that beeps through the system audio
func NewSoundNotifier(config SoundConfig) *SoundNotifier {
	return NewSoundNotifierWithBeeper(config, systemBeeper{})
}

// NewSoundNotifierWithBeeper creates a notifier with a custom tone player
func NewSoundNotifierWithBeeper(config SoundConfig, beeper Beeper) *SoundNotifier {
	return &SoundNotifier{
		enabled: config.Enabled,
		gap:     config.ToneGap,
		beeper:  beeper,
	}
}

// playChime plays a tone sequence in the background. A disabled notifier
// stays silent.
func (s *SoundNotifier) playChime(chime []Tone) {
	s.mu.Lock()
	enabled, gap, beeper := s.enabled, s.gap, s.beeper
	s.mu.Unlock()

	if !enabled || beeper == nil {
		return
	}

	go func() {
		for i, tone := range chime {
			_ = beeper.Beep(tone.Frequency, tone.Duration) //nolint:errcheck // audio feedback is best effort
			if gap > 0 && i < len(chime)-1 {
				time.Sleep(gap)
			}
		}
	}()
}

// PlayWatchStartedSound announces that watch mode is live
func (s *SoundNotifier) PlayWatchStartedSound() {
	s.playChime(chimeWatchStarted)
}

// PlayCleanScanSound plays the rising two-tone chime for a scan with no
// findings
func (s *SoundNotifier) PlayCleanScanSound() {
	s.playChime(chimeCleanScan)
}

// PlayIssuesFoundSound plays the low tone for a scan that reported issues
func (s *SoundNotifier) PlayIssuesFoundSound() {
	s.playChime(chimeIssuesFound)
}

// PlayCriticalAlertSound plays the descending run for critical findings
func (s *SoundNotifier) PlayCriticalAlertSound() {
	s.playChime(chimeCriticalAlert)
}

// SetEnabled turns sound notifications on or off
func (s *SoundNotifier) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

// IsEnabled reports whether sound notifications are on
func (s *SoundNotifier) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
