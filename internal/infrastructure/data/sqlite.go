package data

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// SQLiteSource reads logged experience from a SQLite table. Sparse feature
// maps and metric maps are stored as JSON text columns.
type SQLiteSource struct{}

// ScanRows reads every row of the experience table named by the table spec.
func (s *SQLiteSource) ScanRows(spec workflow.TableSpec) ([]workflow.ExperienceRow, error) {
	db, err := sql.Open("sqlite", spec.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(`
		SELECT mdp_id, sequence_number, state_features, action,
		       next_state_features, reward, not_terminal, metrics, sample_key
		FROM %s
		ORDER BY mdp_id, sequence_number`, spec.TableName)

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", spec.TableName, err)
	}
	defer rows.Close()

	var result []workflow.ExperienceRow
	for rows.Next() {
		var (
			row                        workflow.ExperienceRow
			stateJSON, actionJSON      string
			nextStateJSON, metricsJSON string
			notTerminal                int
		)
		if err := rows.Scan(
			&row.MDPID, &row.SequenceNumber, &stateJSON, &actionJSON,
			&nextStateJSON, &row.Reward, &notTerminal, &metricsJSON, &row.SampleKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row.NotTerminal = notTerminal != 0

		if err := json.Unmarshal([]byte(stateJSON), &row.StateFeatures); err != nil {
			return nil, fmt.Errorf("failed to decode state features: %w", err)
		}
		if err := json.Unmarshal([]byte(actionJSON), &row.Action); err != nil {
			return nil, fmt.Errorf("failed to decode action: %w", err)
		}
		if nextStateJSON != "" {
			if err := json.Unmarshal([]byte(nextStateJSON), &row.NextStateFeatures); err != nil {
				return nil, fmt.Errorf("failed to decode next state features: %w", err)
			}
		}
		if metricsJSON != "" {
			if err := json.Unmarshal([]byte(metricsJSON), &row.Metrics); err != nil {
				return nil, fmt.Errorf("failed to decode metrics: %w", err)
			}
		}

		result = append(result, row)
	}

	return result, rows.Err()
}

// InitExperienceTable creates the experience table schema. Used by fixture
// writers and tests.
func InitExperienceTable(db *sql.DB, tableName string) error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			mdp_id TEXT NOT NULL,
			sequence_number INTEGER NOT NULL,
			state_features TEXT NOT NULL,
			action TEXT NOT NULL,
			next_state_features TEXT,
			reward REAL NOT NULL,
			not_terminal INTEGER NOT NULL,
			metrics TEXT,
			sample_key REAL NOT NULL,
			PRIMARY KEY (mdp_id, sequence_number)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_sample ON %s(sample_key);
	`, tableName, tableName, tableName)

	_, err := db.Exec(schema)
	return err
}

// InsertExperienceRow writes one row into the experience table.
func InsertExperienceRow(db *sql.DB, tableName string, row workflow.ExperienceRow) error {
	stateJSON, err := json.Marshal(row.StateFeatures)
	if err != nil {
		return fmt.Errorf("failed to encode state features: %w", err)
	}
	actionJSON, err := json.Marshal(row.Action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}
	nextStateJSON, err := json.Marshal(row.NextStateFeatures)
	if err != nil {
		return fmt.Errorf("failed to encode next state features: %w", err)
	}
	metricsJSON, err := json.Marshal(row.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	notTerminal := 0
	if row.NotTerminal {
		notTerminal = 1
	}

	_, err = db.Exec(fmt.Sprintf(`
		INSERT INTO %s (mdp_id, sequence_number, state_features, action,
		                next_state_features, reward, not_terminal, metrics, sample_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, tableName),
		row.MDPID, row.SequenceNumber, string(stateJSON), string(actionJSON),
		string(nextStateJSON), row.Reward, notTerminal, string(metricsJSON), row.SampleKey,
	)
	return err
}
