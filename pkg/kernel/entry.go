package kernel

import "github.com/crlotwhite/libetude-sub008/pkg/isa"

// Entry describes one registered kernel implementation: a name, the ISA
// features it requires, the input size it was tuned for, a benchmarked
// performance score, and the tagged Handle used to invoke it.
type Entry struct {
	Name             string
	Family           Family
	RequiredISA      isa.Mask
	OptimalSize      int
	PerformanceScore float64
	Handle           Handle
}

// sizeFactor scores how well entry's OptimalSize fits dataSize: 0.5 when
// dataSize is well below the tuned size (this kernel was built for
// bigger inputs than asked), 2.0 when dataSize has reached or exceeded
// the tuned size (this kernel is in or past its sweet spot), 1.0
// otherwise. OptimalSize == 0 means "tuned for all sizes", so it always
// gets the neutral 1.0.
func sizeFactor(entry *Entry, dataSize int) float64 {
	if entry.OptimalSize <= 0 {
		return 1.0
	}
	switch {
	case dataSize < entry.OptimalSize/4:
		return 0.5
	case dataSize >= entry.OptimalSize:
		return 2.0
	default:
		return 1.0
	}
}
