package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// parquetExperienceRecord is the on-disk layout of one logged transition.
// Sparse feature maps are stored as parallel id/value list columns.
type parquetExperienceRecord struct {
	MDPID          string `parquet:"name=mdp_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SequenceNumber int32  `parquet:"name=sequence_number, type=INT32"`

	StateFeatureIDs    []int64   `parquet:"name=state_feature_ids, type=LIST, valuetype=INT64"`
	StateFeatureValues []float64 `parquet:"name=state_feature_values, type=LIST, valuetype=DOUBLE"`

	ActionIDs    []int64   `parquet:"name=action_ids, type=LIST, valuetype=INT64"`
	ActionValues []float64 `parquet:"name=action_values, type=LIST, valuetype=DOUBLE"`

	NextStateFeatureIDs    []int64   `parquet:"name=next_state_feature_ids, type=LIST, valuetype=INT64"`
	NextStateFeatureValues []float64 `parquet:"name=next_state_feature_values, type=LIST, valuetype=DOUBLE"`

	Reward      float64 `parquet:"name=reward, type=DOUBLE"`
	NotTerminal bool    `parquet:"name=not_terminal, type=BOOLEAN"`

	MetricNames  []string  `parquet:"name=metric_names, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	MetricValues []float64 `parquet:"name=metric_values, type=LIST, valuetype=DOUBLE"`

	SampleKey float64 `parquet:"name=sample_key, type=DOUBLE"`
}

// toExperienceRow converts the parquet layout back to the domain row.
func (r parquetExperienceRecord) toExperienceRow() workflow.ExperienceRow {
	return workflow.ExperienceRow{
		MDPID:             r.MDPID,
		SequenceNumber:    int(r.SequenceNumber),
		StateFeatures:     zipFeatureMap(r.StateFeatureIDs, r.StateFeatureValues),
		Action:            zipFeatureMap(r.ActionIDs, r.ActionValues),
		NextStateFeatures: zipFeatureMap(r.NextStateFeatureIDs, r.NextStateFeatureValues),
		Reward:            r.Reward,
		NotTerminal:       r.NotTerminal,
		Metrics:           zipMetricMap(r.MetricNames, r.MetricValues),
		SampleKey:         r.SampleKey,
	}
}

func zipFeatureMap(ids []int64, values []float64) map[int64]float64 {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[int64]float64, len(ids))
	for i, id := range ids {
		if i < len(values) {
			m[id] = values[i]
		}
	}
	return m
}

func zipMetricMap(names []string, values []float64) map[string]float64 {
	if len(names) == 0 {
		return nil
	}
	m := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(values) {
			m[name] = values[i]
		}
	}
	return m
}

// ParquetSource reads logged experience exported as Parquet files. The table
// spec location may be a single file or a directory of part files.
type ParquetSource struct{}

// ScanRows reads every row from the Parquet file(s) named by the table spec.
func (s *ParquetSource) ScanRows(spec workflow.TableSpec) ([]workflow.ExperienceRow, error) {
	files, err := parquetFiles(spec.Location)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files at %s", spec.Location)
	}

	var result []workflow.ExperienceRow
	for _, file := range files {
		rows, err := s.readFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		result = append(result, rows...)
	}
	return result, nil
}

func (s *ParquetSource) readFile(path string) ([]workflow.ExperienceRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(parquetExperienceRecord), 2)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	rows := make([]workflow.ExperienceRow, 0, total)

	const chunkSize = 1000
	for read := 0; read < total; {
		n := chunkSize
		if total-read < n {
			n = total - read
		}
		records := make([]parquetExperienceRecord, n)
		if err := pr.Read(&records); err != nil {
			return nil, fmt.Errorf("failed to read records: %w", err)
		}
		for _, rec := range records {
			rows = append(rows, rec.toExperienceRow())
		}
		read += n
	}

	return rows, nil
}

// parquetFiles lists the parquet file(s) at a location, sorted by name.
func parquetFiles(location string) ([]string, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", location, err)
	}
	if !info.IsDir() {
		return []string{location}, nil
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", location, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".parquet") {
			files = append(files, filepath.Join(location, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
