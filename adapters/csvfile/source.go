// Package csvfile loads epoched recordings from long-format CSV files.
// Each recording is one file named <id>.csv with the header
// channel,trial,sample,value; an optional <id>_trials.csv sidecar with
// the header trial,response_ms,correct,condition supplies behavioral
// metadata.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"neurosync/domain/core"
	"neurosync/domain/signal"
	"neurosync/ports"
)

// Source reads recordings from a directory of CSV files.
type Source struct {
	dir        string
	sampleRate float64
}

// NewSource creates a CSV-backed epoch source
func NewSource(dir string, sampleRate float64) *Source {
	return &Source{dir: dir, sampleRate: sampleRate}
}

// List enumerates recording references, one per .csv file (sidecar trial
// files excluded).
func (s *Source) List(ctx context.Context) ([]core.RecordingID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}
	var ids []core.RecordingID
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, "_trials.csv") {
			continue
		}
		ids = append(ids, core.RecordingID(strings.TrimSuffix(name, ".csv")))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Load parses one recording and its optional trial sidecar.
func (s *Source) Load(ctx context.Context, id core.RecordingID) (*ports.Recording, error) {
	path := filepath.Join(s.dir, id.String()+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewNotFoundError("recording", id.String())
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	epochs, err := s.parseEpochs(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	trials, err := s.loadTrials(id, epochs.Trials())
	if err != nil {
		return nil, err
	}

	return &ports.Recording{ID: id, Epochs: epochs, Trials: trials}, nil
}

type sampleRow struct {
	channel, trial, sample int
	value                  float64
}

func (s *Source) parseEpochs(f io.Reader) (*signal.EpochArray, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	r.ReuseRecord = true

	if _, err := r.Read(); err != nil { // header
		return nil, fmt.Errorf("missing header: %w", err)
	}

	var rows []sampleRow
	channels, samples, trials := 0, 0, 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseSampleRow(record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if row.channel+1 > channels {
			channels = row.channel + 1
		}
		if row.sample+1 > samples {
			samples = row.sample + 1
		}
		if row.trial+1 > trials {
			trials = row.trial + 1
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no sample rows")
	}
	if len(rows) != channels*samples*trials {
		return nil, fmt.Errorf("incomplete grid: %d rows for %dx%dx%d", len(rows), channels, samples, trials)
	}

	data := make([]float64, channels*samples*trials)
	for _, row := range rows {
		data[(row.channel*samples+row.sample)*trials+row.trial] = row.value
	}
	return signal.NewEpochArray(data, channels, samples, trials, s.sampleRate, nil)
}

func parseSampleRow(record []string) (sampleRow, error) {
	var row sampleRow
	var err error
	if row.channel, err = strconv.Atoi(record[0]); err != nil || row.channel < 0 {
		return row, fmt.Errorf("bad channel %q", record[0])
	}
	if row.trial, err = strconv.Atoi(record[1]); err != nil || row.trial < 0 {
		return row, fmt.Errorf("bad trial %q", record[1])
	}
	if row.sample, err = strconv.Atoi(record[2]); err != nil || row.sample < 0 {
		return row, fmt.Errorf("bad sample %q", record[2])
	}
	if row.value, err = strconv.ParseFloat(record[3], 64); err != nil {
		return row, fmt.Errorf("bad value %q", record[3])
	}
	return row, nil
}

// loadTrials reads the sidecar when present; absent sidecars yield bare
// index-only metadata.
func (s *Source) loadTrials(id core.RecordingID, count int) ([]ports.TrialInfo, error) {
	path := filepath.Join(s.dir, id.String()+"_trials.csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			trials := make([]ports.TrialInfo, count)
			for i := range trials {
				trials[i].Index = i
			}
			return trials, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("missing trial header: %w", err)
	}

	trials := make([]ports.TrialInfo, count)
	for i := range trials {
		trials[i].Index = i
	}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(record[0])
		if err != nil || idx < 0 || idx >= count {
			return nil, fmt.Errorf("bad trial index %q", record[0])
		}
		rt, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad response_ms %q", record[1])
		}
		correct, err := strconv.ParseBool(record[2])
		if err != nil {
			return nil, fmt.Errorf("bad correct flag %q", record[2])
		}
		trials[idx] = ports.TrialInfo{
			Index:      idx,
			ResponseMs: rt,
			Correct:    correct,
			Condition:  record[3],
		}
	}
	return trials, nil
}
