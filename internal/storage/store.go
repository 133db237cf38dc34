// Package storage persists experiment runs on disk, one directory per run
// holding metadata.json and a samples.csv of the probed series.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/tubone24/monte-carlo-3d-app/internal/experiment"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Experiment string             `json:"experiment"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	MassRatio  float64            `json:"mass_ratio"`
	Steps      int                `json:"steps"`
	Final      map[string]float64 `json:"final"`
}

// Save writes one run to <base>/<name>_<nanos>/. Nanosecond IDs keep rapid
// sweep saves from landing in the same directory.
func (s *Store) Save(seed int64, massRatio float64, res *experiment.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", res.Name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	final := make(map[string]float64, len(res.Series))
	for name := range res.Series {
		final[name] = res.Last(name)
	}
	meta := RunMetadata{
		ID:         runID,
		Experiment: res.Name,
		Timestamp:  time.Now(),
		Seed:       seed,
		MassRatio:  massRatio,
		Steps:      res.Steps,
		Final:      final,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "samples.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	names := make([]string, 0, len(res.Series))
	for name := range res.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	header := append([]string{"time_ms"}, names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range res.TimesMs {
		row := []string{strconv.FormatInt(res.TimesMs[i], 10)}
		for _, name := range names {
			vs := res.Series[name]
			if i < len(vs) {
				row = append(row, strconv.FormatFloat(vs[i], 'f', 6, 64))
			} else {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns metadata for every readable run. Directories without a
// parseable metadata.json are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads a run's series back, keyed by the CSV header names.
// Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]int64, map[string][]float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "samples.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 1 {
		return []int64{}, map[string][]float64{}, nil
	}

	header := records[0]
	series := make(map[string][]float64, len(header)-1)
	times := make([]int64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != len(header) {
			continue
		}

		tm, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			continue
		}
		times = append(times, tm)

		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				val = 0
			}
			series[header[j]] = append(series[header[j]], val)
		}
	}

	return times, series, nil
}
