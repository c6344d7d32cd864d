package stabilize

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/visionrt/go-stabtrack/result"
)

// Stabilizer is the per-frame stabilization contract.
//
// Sources may be processed concurrently, but the host runtime must process
// each individual source from exactly one worker at a time.
type Stabilizer interface {
	// Process folds one frame of raw detections into the source's track
	// state and returns the stabilized detection list.
	Process(detections []result.Detection, sourceID int) ([]result.Detection, error)

	// Reset forgets all tracks for one source.
	Reset(sourceID int)

	// ResetAll forgets all tracks for every source.
	ResetAll()

	// Stats returns the source's stabilization counters.
	Stats(sourceID int) Stats
}

// Stats holds per-source stabilization counters.
type Stats struct {
	// TotalDetected counts raw detections seen
	TotalDetected int
	// TotalConfirmed counts tracks that reached confirmation
	TotalConfirmed int
	// TotalIgnored counts detections discarded below the appear threshold
	TotalIgnored int
	// TotalRemoved counts tracks evicted after exceeding the gap tolerance
	TotalRemoved int
	// ActiveTracks is the current live track count
	ActiveTracks int
	// TracksByClass is the live track count per class
	TracksByClass map[string]int
	// ConfirmRatio is TotalConfirmed over TotalDetected
	ConfirmRatio float64
}

// TemporalHysteresis stabilizes detections with temporal filtering plus
// confidence hysteresis:
//
//  1. a new object must score at least the appear confidence to start a
//     track
//  2. a track must be seen MinFrames consecutive frames to be confirmed
//  3. once confirmed, the lower persist confidence keeps it alive
//  4. a track survives up to MaxGap consecutive missed frames
//
// Example (MinFrames=3, MaxGap=2, appear=0.5, persist=0.3):
//
//	frame 1: person 0.45 -> ignored (< 0.5 appear)
//	frame 2: person 0.52 -> tracking (frames 1/3)
//	frame 3: person 0.55 -> tracking (frames 2/3)
//	frame 4: person 0.51 -> confirmed, emitted (frames 3/3)
//	frame 5: person 0.35 -> kept, emitted (>= 0.3 persist)
//	frame 6: no detection -> gap 1/2, not emitted
//	frame 7: no detection -> gap 2/2, not emitted
//	frame 8: no detection -> gap exceeds tolerance, evicted
//
// Complexity is O(N*M) per frame for N detections and M live tracks, both
// small at typical stream rates.
type TemporalHysteresis struct {
	cfg     Config
	matcher *Matcher
	log     *zap.Logger
	idGen   *result.IDGenerator

	// mu guards the source tables themselves.  The track list and counters
	// behind each key remain single-writer per source, only the shared map
	// lookups and inserts need the lock when sources run on separate
	// workers.
	mu sync.Mutex

	// tracks holds the live set per source as a flat list.  Indices are
	// stable within a frame, which is what the matched-set bookkeeping
	// relies on; class filtering happens inside the matching strategies.
	tracks map[int][]*Track
	stats  map[int]*Stats
}

// NewTemporalHysteresis returns the temporal+hysteresis stabilizer.  Use
// New to validate configuration first.
func NewTemporalHysteresis(cfg Config, log *zap.Logger) *TemporalHysteresis {
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("temporal hysteresis stabilizer initialized",
		zap.Int("min_frames", cfg.MinFrames),
		zap.Int("max_gap", cfg.MaxGap),
		zap.Float32("appear_conf", cfg.AppearConf),
		zap.Float32("persist_conf", cfg.PersistConf),
		zap.Float32("iou_threshold", cfg.IoUThreshold))

	return &TemporalHysteresis{
		cfg:     cfg,
		matcher: NewMatcher(cfg.IoUThreshold),
		log:     log,
		idGen:   result.NewIDGenerator(),
		tracks:  make(map[int][]*Track),
		stats:   make(map[int]*Stats),
	}
}

// Process runs one frame through the track lifecycle and returns the
// confirmed, currently-visible detections.
//
// Detections are assumed to be de-duplicated upstream (the model's own
// suppression).  Two near-identical detections of the same class are
// assigned in input-list order with no further tie-break.
func (s *TemporalHysteresis) Process(detections []result.Detection, sourceID int) ([]result.Detection, error) {

	// fail fast on malformed input before touching track state
	for i, det := range detections {
		if err := det.Validate(); err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
	}

	s.mu.Lock()
	tracks := s.tracks[sourceID]
	stats := s.sourceStats(sourceID)
	s.mu.Unlock()

	stats.TotalDetected += len(detections)

	// Tracks existing at frame start are the match candidates.  Tracks
	// created during this frame represent objects first seen now, they are
	// not candidates for the remaining detections and are not swept as
	// missed below.
	preexisting := len(tracks)
	matched := make(map[int]bool, preexisting)

	for _, det := range detections {

		match, ok := s.matcher.FindBestMatch(det, tracks[:preexisting], matched)

		if ok {
			matched[match.Index] = true

			// hysteresis: confirmed tracks persist on the lower threshold
			threshold := s.cfg.AppearConf
			if match.Track.Confirmed {
				threshold = s.cfg.PersistConf
			}

			if det.Confidence >= threshold {
				match.Track.Update(det)

				if !match.Track.Confirmed && match.Track.ConsecutiveFrames >= s.cfg.MinFrames {
					match.Track.Confirmed = true
					stats.TotalConfirmed++
					s.log.Debug("track confirmed",
						zap.Int("source_id", sourceID),
						zap.Int64("track_id", match.Track.ID),
						zap.String("class", match.Track.Class),
						zap.Int("frames", match.Track.ConsecutiveFrames),
						zap.String("strategy", match.Strategy))
				}
			} else {
				// confidence below the hysteresis threshold, same as no
				// sighting at all
				match.Track.MarkMissed()
			}

			continue
		}

		if det.Confidence >= s.cfg.AppearConf {
			trk := newTrack(s.idGen.Next(), det)

			// with MinFrames of 1 the first sighting already confirms
			if trk.ConsecutiveFrames >= s.cfg.MinFrames {
				trk.Confirmed = true
				stats.TotalConfirmed++
			}

			tracks = append(tracks, trk)

			s.log.Debug("new track",
				zap.Int("source_id", sourceID),
				zap.Int64("track_id", trk.ID),
				zap.String("class", trk.Class),
				zap.Float32("confidence", det.Confidence))
		} else {
			stats.TotalIgnored++
		}
	}

	// every pre-existing track not referenced this frame is missed
	for idx := 0; idx < preexisting; idx++ {
		if !matched[idx] {
			tracks[idx].MarkMissed()
		}
	}

	// emit confirmed tracks seen this frame
	var stabilized []result.Detection

	for _, trk := range tracks {
		if trk.Confirmed && trk.GapFrames == 0 {
			stabilized = append(stabilized, trk.Detection())
		}
	}

	// evict tracks past the gap tolerance
	live := tracks[:0]

	for _, trk := range tracks {
		if trk.GapFrames > s.cfg.MaxGap {
			stats.TotalRemoved++
			s.log.Debug("track evicted",
				zap.Int("source_id", sourceID),
				zap.Int64("track_id", trk.ID),
				zap.String("class", trk.Class),
				zap.Int("gap_frames", trk.GapFrames))
			continue
		}
		live = append(live, trk)
	}

	s.mu.Lock()
	s.tracks[sourceID] = live
	s.mu.Unlock()

	stats.ActiveTracks = len(live)

	return stabilized, nil
}

// Reset forgets all tracks and counters for one source.
func (s *TemporalHysteresis) Reset(sourceID int) {
	s.mu.Lock()
	delete(s.tracks, sourceID)
	delete(s.stats, sourceID)
	s.mu.Unlock()

	s.log.Info("stabilization tracks reset", zap.Int("source_id", sourceID))
}

// ResetAll forgets all tracks and counters for every source.
func (s *TemporalHysteresis) ResetAll() {
	s.mu.Lock()
	s.tracks = make(map[int][]*Track)
	s.stats = make(map[int]*Stats)
	s.mu.Unlock()

	s.log.Info("stabilization tracks reset for all sources")
}

// Stats returns a copy of the source's counters with the per-class
// breakdown filled in.
func (s *TemporalHysteresis) Stats(sourceID int) Stats {

	s.mu.Lock()
	out := *s.sourceStats(sourceID)
	tracks := s.tracks[sourceID]
	s.mu.Unlock()

	out.TracksByClass = make(map[string]int)
	for _, trk := range tracks {
		out.TracksByClass[trk.Class]++
	}

	if out.TotalDetected > 0 {
		out.ConfirmRatio = float64(out.TotalConfirmed) / float64(out.TotalDetected)
	}

	return out
}

// sourceStats returns the mutable counters for a source, creating them on
// first use.  Callers hold mu.
func (s *TemporalHysteresis) sourceStats(sourceID int) *Stats {
	st := s.stats[sourceID]
	if st == nil {
		st = &Stats{}
		s.stats[sourceID] = st
	}
	return st
}

// NoOp is the baseline stabilizer, detections pass through unmodified.
type NoOp struct{}

// Process returns the detections unchanged.
func (NoOp) Process(detections []result.Detection, sourceID int) ([]result.Detection, error) {
	return detections, nil
}

// Reset is a no-op.
func (NoOp) Reset(int) {}

// ResetAll is a no-op.
func (NoOp) ResetAll() {}

// Stats returns empty counters.
func (NoOp) Stats(int) Stats {
	return Stats{}
}
