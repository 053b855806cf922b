package run

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Fingerprint generates a deterministic hash over the run parameters that
// determine its output: same fingerprint, same result. Status and
// timestamps are deliberately excluded.
func Fingerprint(r *AnalysisRun) string {
	roi := make([]string, len(r.ROI))
	for i, l := range r.ROI {
		roi[i] = l.String()
	}

	data := fmt.Sprintf("recording:%s|band:%g-%g/%d|window:%g-%g|roi:%s|seedch:%s|boot:%d|seed:%d",
		r.RecordingID, r.Band.LowHz, r.Band.HighHz, r.Band.Order,
		r.Window.StartMs, r.Window.EndMs,
		strings.Join(roi, ","), r.SeedChannel, r.BootstrapReps, r.Seed)

	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
