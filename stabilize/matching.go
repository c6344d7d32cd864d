package stabilize

import (
	"github.com/visionrt/go-stabtrack/result"
)

// StrategyKind identifies a matching policy.  Strategies are a fixed set of
// tagged variants, the matcher is pure dispatch over an ordered list of
// them.
type StrategyKind int

const (
	// KindIoU scores by spatial overlap, zero across classes
	KindIoU StrategyKind = iota
	// KindClassOnly scores 1 for a class match regardless of position, a
	// fallback for objects that moved too far for IoU
	KindClassOnly
)

// String returns the strategy name for logging and match reporting.
func (k StrategyKind) String() string {
	switch k {
	case KindIoU:
		return "iou"
	case KindClassOnly:
		return "class_only"
	}
	return "unknown"
}

// Strategy is one stateless matching policy comparing a single detection to
// a single track.
type Strategy struct {
	Kind StrategyKind
	// Threshold is the minimum qualifying score for this strategy
	Threshold float32
	// Enabled strategies participate in matching, disabled ones are
	// skipped entirely
	Enabled bool
}

// IoUStrategy returns the spatial matching policy with the given threshold.
func IoUStrategy(threshold float32) Strategy {
	return Strategy{Kind: KindIoU, Threshold: threshold, Enabled: true}
}

// ClassOnlyStrategy returns the class-match fallback policy.  The threshold
// is fixed at 0.5, scores are binary.
func ClassOnlyStrategy() Strategy {
	return Strategy{Kind: KindClassOnly, Threshold: 0.5, Enabled: true}
}

// Score computes the similarity of a detection to a track in [0,1].
func (s Strategy) Score(det result.Detection, trk *Track) float32 {
	switch s.Kind {
	case KindIoU:
		if det.Class != trk.Class {
			return 0
		}
		return result.IoU(det, trk.box())

	case KindClassOnly:
		if det.Class == trk.Class {
			return 1
		}
		return 0
	}

	return 0
}

// Match is the outcome of a successful track association.
type Match struct {
	// Track is the matched track
	Track *Track
	// Index is the track's position in the candidate list, for matched-set
	// bookkeeping
	Index int
	// Score is the winning similarity score
	Score float32
	// Strategy names the policy that produced the match
	Strategy string
}

// Matcher resolves detections against tracks using an ordered hierarchy of
// strategies: the first strategy to produce a qualifying match wins, later
// strategies are not consulted.  It is not a global optimum across
// strategies.
type Matcher struct {
	strategies []Strategy
}

// NewMatcher returns the default hierarchy: IoU with the given threshold,
// then the class-only fallback.
func NewMatcher(iouThreshold float32) *Matcher {
	return &Matcher{
		strategies: []Strategy{
			IoUStrategy(iouThreshold),
			ClassOnlyStrategy(),
		},
	}
}

// NewMatcherWithStrategies returns a matcher over a caller-supplied ordered
// strategy list.
func NewMatcherWithStrategies(strategies []Strategy) *Matcher {
	return &Matcher{strategies: strategies}
}

// FindBestMatch returns the best qualifying track for the detection, asking
// each enabled strategy in order for its highest-scoring track not already
// in matched.  The second return is false when no strategy finds a
// qualifying match or the candidates are empty or fully matched.
func (m *Matcher) FindBestMatch(det result.Detection, tracks []*Track, matched map[int]bool) (Match, bool) {

	if len(tracks) == 0 {
		return Match{}, false
	}

	for _, strategy := range m.strategies {

		if !strategy.Enabled {
			continue
		}

		var (
			bestTrack *Track
			bestIdx   int
			bestScore float32
		)

		for idx, trk := range tracks {
			if matched[idx] {
				continue
			}

			score := strategy.Score(det, trk)

			if score > bestScore && score >= strategy.Threshold {
				bestScore = score
				bestTrack = trk
				bestIdx = idx
			}
		}

		if bestTrack != nil {
			return Match{
				Track:    bestTrack,
				Index:    bestIdx,
				Score:    bestScore,
				Strategy: strategy.Kind.String(),
			}, true
		}
	}

	return Match{}, false
}
