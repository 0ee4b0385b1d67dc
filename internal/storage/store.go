package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/softfem/internal/config"
	"github.com/san-kum/softfem/internal/metrics"
	"github.com/san-kum/softfem/internal/scene"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	framesFile   = "frames.csv"
)

var framesHeader = []string{"frame", "time", "body", "energy", "lowest_y", "valid"}

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
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Bodies    []string           `json:"bodies"`
	Dt        float64            `json:"dt"`
	Damping   float64            `json:"damping"`
	Substeps  int                `json:"substeps"`
	Frames    int                `json:"frames"`
	Duration  float64            `json:"duration"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Policy    string             `json:"policy"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FrameDt is the simulated time between two stored frames.
func (m *RunMetadata) FrameDt() float64 {
	return m.Dt * float64(m.Substeps)
}

// Save writes a run directory holding metadata.json, config.yaml and
// frames.csv and returns the run id.
func (s *Store) Save(name string, cfg *config.Config, result *scene.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.newRunDir(name, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scene:     name,
		Timestamp: now,
		Bodies:    result.Bodies,
		Dt:        cfg.Dt,
		Damping:   cfg.Damping,
		Substeps:  cfg.Substeps,
		Frames:    result.Frames,
		Duration:  result.Time,
		Elapsed:   result.Elapsed,
		Policy:    cfg.Policy,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(name string, now time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name, now.Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, samples []metrics.FrameSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(framesHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Frame),
			strconv.FormatFloat(s.Time, 'g', -1, 64),
			s.Body,
			strconv.FormatFloat(s.Energy, 'g', -1, 64),
			strconv.FormatFloat(s.LowestY, 'g', -1, 64),
			strconv.FormatBool(s.Valid),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig returns the scene configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadFrames(runID string) ([]metrics.FrameSample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(framesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []metrics.FrameSample{}, nil
	}

	out := make([]metrics.FrameSample, 0, len(records)-1)
	for i, rec := range records[1:] {
		fs, err := parseFrame(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, i+2, err)
		}
		out = append(out, fs)
	}
	return out, nil
}

func parseFrame(rec []string) (metrics.FrameSample, error) {
	var (
		fs  metrics.FrameSample
		err error
	)
	if fs.Frame, err = strconv.Atoi(rec[0]); err != nil {
		return fs, err
	}
	if fs.Time, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return fs, err
	}
	fs.Body = rec[2]
	if fs.Energy, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return fs, err
	}
	if fs.LowestY, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return fs, err
	}
	if fs.Valid, err = strconv.ParseBool(rec[5]); err != nil {
		return fs, err
	}
	return fs, nil
}

// EnergyTrace extracts one body's energy per frame, or the per-frame total
// when body is empty.
func EnergyTrace(samples []metrics.FrameSample, body string) []float64 {
	var out []float64
	last := -1
	for _, s := range samples {
		switch {
		case body != "":
			if s.Body == body {
				out = append(out, s.Energy)
			}
		case s.Frame != last:
			out = append(out, s.Energy)
			last = s.Frame
		default:
			out[len(out)-1] += s.Energy
		}
	}
	return out
}
