package stores

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"time"
)

// RunStatus represents the status of an inference run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents a persisted inference run
type Run struct {
	ID          string     `json:"id"`
	Model       string     `json:"model"`
	DataPath    string     `json:"data_path"`
	DataPoints  int        `json:"data_points"`
	Draws       int        `json:"draws"`
	Chains      int        `json:"chains"`
	Acceptance  float64    `json:"acceptance"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Metadata    string     `json:"metadata"` // JSON blob, e.g. prior hyperparameters
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Posterior represents the persisted marginal posterior of one parameter
type Posterior struct {
	ID    int64   `json:"id"`
	RunID string  `json:"run_id"`
	Param string  `json:"param"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Q05   float64 `json:"q05"`
	Q50   float64 `json:"q50"`
	Q95   float64 `json:"q95"`
	Draws []byte  `json:"draws,omitempty"` // EncodeDraws blob, optional
}

// EncodeDraws packs posterior draws into a little-endian float64 blob.
func EncodeDraws(draws []float64) []byte {
	buf := make([]byte, 8*len(draws))
	for i, v := range draws {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeDraws unpacks a blob written by EncodeDraws. Trailing bytes that
// do not fill a float64 are ignored.
func DecodeDraws(blob []byte) []float64 {
	n := len(blob) / 8
	draws := make([]float64, n)
	for i := 0; i < n; i++ {
		draws[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return draws
}

// Store defines the interface for the persistence layer
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRunStatus(ctx context.Context, id string, status RunStatus, err *string) error
	UpdateRunResult(ctx context.Context, id string, acceptance float64) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Posterior operations
	SavePosteriors(ctx context.Context, runID string, posteriors []*Posterior) error
	GetPosteriors(ctx context.Context, runID string) ([]*Posterior, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
