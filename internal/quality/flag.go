package quality

// Flag records how a scene fared through a stage. OK means the stage
// completed as asked; everything else names the compromise that kept the
// scene alive.
type Flag string

const (
	// OK is the clean outcome.
	OK Flag = "OK"
	// Repaired means a QA violation was fixed by a repair pass.
	Repaired Flag = "REPAIRED"
	// Degraded means a known defect was accepted rather than fixed.
	Degraded Flag = "DEGRADED"
	// Fallback means a substitute artifact stands in for the real one.
	Fallback Flag = "FALLBACK"
	// AudioSilent means every narration option failed and the scene
	// carries a silent track.
	AudioSilent Flag = "AUDIO_SILENT"
)

// severity orders flags from best to worst for aggregation.
func (f Flag) severity() int {
	switch f {
	case OK:
		return 0
	case Repaired:
		return 1
	case Degraded:
		return 2
	case Fallback:
		return 3
	case AudioSilent:
		return 4
	default:
		return 5
	}
}

// Worse returns the more severe of the two flags. Used when a scene picks
// up compromises across multiple stages.
func Worse(a, b Flag) Flag {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// Valid reports whether f is one of the defined flags.
func (f Flag) Valid() bool {
	switch f {
	case OK, Repaired, Degraded, Fallback, AudioSilent:
		return true
	default:
		return false
	}
}
