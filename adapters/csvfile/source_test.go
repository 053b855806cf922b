package csvfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosync/domain/core"
)

func writeRecordingCSV(t *testing.T, dir, id string, channels, samples, trials int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("channel,trial,sample,value\n")
	for c := 0; c < channels; c++ {
		for tr := 0; tr < trials; tr++ {
			for s := 0; s < samples; s++ {
				fmt.Fprintf(&b, "%d,%d,%d,%g\n", c, tr, s, float64(c*1000+tr*100+s))
			}
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".csv"), []byte(b.String()), 0o644))
}

func TestLoadRecording(t *testing.T) {
	dir := t.TempDir()
	writeRecordingCSV(t, dir, "subject-01", 2, 8, 3)

	source := NewSource(dir, 250)
	rec, err := source.Load(context.Background(), "subject-01")
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Epochs.Channels())
	assert.Equal(t, 8, rec.Epochs.Samples())
	assert.Equal(t, 3, rec.Epochs.Trials())
	assert.Equal(t, 250.0, rec.Epochs.SampleRate())
	// value encodes its own coordinates
	assert.Equal(t, 1204.0, rec.Epochs.At(1, 4, 2))

	// No sidecar: bare index metadata
	require.Len(t, rec.Trials, 3)
	assert.Equal(t, 1, rec.Trials[1].Index)
	assert.Zero(t, rec.Trials[1].ResponseMs)
}

func TestLoadTrialSidecar(t *testing.T) {
	dir := t.TempDir()
	writeRecordingCSV(t, dir, "subject-02", 1, 4, 2)
	sidecar := "trial,response_ms,correct,condition\n0,412.5,true,congruent\n1,698.0,false,incongruent\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subject-02_trials.csv"), []byte(sidecar), 0o644))

	source := NewSource(dir, 500)
	rec, err := source.Load(context.Background(), "subject-02")
	require.NoError(t, err)

	require.Len(t, rec.Trials, 2)
	assert.Equal(t, 412.5, rec.Trials[0].ResponseMs)
	assert.True(t, rec.Trials[0].Correct)
	assert.Equal(t, "congruent", rec.Trials[0].Condition)
	assert.False(t, rec.Trials[1].Correct)
	assert.Equal(t, "incongruent", rec.Trials[1].Condition)
}

func TestLoadMissingRecording(t *testing.T) {
	source := NewSource(t.TempDir(), 500)
	_, err := source.Load(context.Background(), "nope")
	assert.True(t, core.IsNotFoundError(err))
}

func TestLoadIncompleteGrid(t *testing.T) {
	dir := t.TempDir()
	content := "channel,trial,sample,value\n0,0,0,1.0\n0,0,1,2.0\n1,0,0,3.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte(content), 0o644))

	source := NewSource(dir, 500)
	_, err := source.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete grid")
}

func TestListExcludesSidecars(t *testing.T) {
	dir := t.TempDir()
	writeRecordingCSV(t, dir, "b", 1, 2, 2)
	writeRecordingCSV(t, dir, "a", 1, 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_trials.csv"), []byte("trial,response_ms,correct,condition\n"), 0o644))

	source := NewSource(dir, 500)
	ids, err := source.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.RecordingID{"a", "b"}, ids)
}
