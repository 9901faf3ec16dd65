// Package storage persists run outcomes and trajectories with gorm, on
// SQLite or PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/core/observability/log"
	"github.com/zeusync/trackpilot/internal/core/simulation"
)

const snapshotBatchSize = 500

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrCorruptRun    = errors.New("stored trajectory does not match its fingerprint")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrMissingGenome = errors.New("run has no stored genome")
)

// Run is a completed simulation as stored and loaded.
type Run struct {
	ID          uuid.UUID
	CandidateID uuid.UUID
	Generation  int
	Score       float64
	Outcome     simulation.Outcome
	Fingerprint uint64
	Genome      *npc.Genome
	Trajectory  simulation.Trajectory
	CreatedAt   time.Time
}

type Store struct {
	db  *gorm.DB
	log log.Log
}

// Open connects with driver "sqlite" (dsn is a file path or "file::memory:")
// or "postgres" (dsn is a libpq connection string or URL).
func Open(driver, dsn string, logger log.Log) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		// A single connection keeps in-memory databases alive and avoids
		// SQLITE_BUSY between writers.
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, logger), nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        snapshotBatchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// New wraps an existing connection.
func New(db *gorm.DB, logger log.Log) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, log: logger}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveRun stores the run and all of its snapshots in one transaction. A nil
// ID is replaced with a new random one, which is written back to run.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	rec := RunRecord{
		ID:          run.ID.String(),
		Generation:  run.Generation,
		Score:       run.Score,
		Collision:   run.Outcome.Collision,
		Ticks:       run.Outcome.Ticks,
		Fingerprint: strconv.FormatUint(run.Fingerprint, 16),
		CreatedAt:   run.CreatedAt,
		Genome:      datatypes.JSON("null"),
	}
	if run.CandidateID != uuid.Nil {
		rec.CandidateID = run.CandidateID.String()
	}
	if run.Genome != nil {
		data, err := json.Marshal(run.Genome)
		if err != nil {
			return fmt.Errorf("encode genome: %w", err)
		}
		rec.Genome = datatypes.JSON(data)
	}

	snaps := make([]SnapshotRecord, len(run.Trajectory))
	for i, snap := range run.Trajectory {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot %d: %w", i, err)
		}
		snaps[i] = SnapshotRecord{RunID: rec.ID, Tick: i, Positions: datatypes.JSON(data)}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if len(snaps) == 0 {
			return nil
		}
		return tx.CreateInBatches(snaps, snapshotBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}

	s.log.Debug("run saved",
		log.String("run_id", rec.ID),
		log.Int("generation", rec.Generation),
		log.Int("snapshots", len(snaps)),
	)
	return nil
}

// LoadRun reads a run and its trajectory, verifying the stored fingerprint.
func (s *Store) LoadRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var rec RunRecord
	err := s.db.WithContext(ctx).
		Preload("Snapshots", func(db *gorm.DB) *gorm.DB { return db.Order("tick ASC") }).
		First(&rec, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	run, err := fromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	run.Trajectory = make(simulation.Trajectory, len(rec.Snapshots))
	for i, sr := range rec.Snapshots {
		if err := json.Unmarshal(sr.Positions, &run.Trajectory[i]); err != nil {
			return nil, fmt.Errorf("decode snapshot %d of run %s: %w", sr.Tick, id, err)
		}
	}
	if got := run.Trajectory.Fingerprint(); got != run.Fingerprint {
		return nil, fmt.Errorf("%w: run %s has %x, recomputed %x", ErrCorruptRun, id, run.Fingerprint, got)
	}
	return run, nil
}

// BestRuns lists up to limit runs by ascending score, without trajectories.
func (s *Store) BestRuns(ctx context.Context, limit int) ([]Run, error) {
	var recs []RunRecord
	err := s.db.WithContext(ctx).
		Order("score ASC").Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]Run, 0, len(recs))
	for _, rec := range recs {
		run, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, nil
}

// DeleteRun removes a run and its snapshots.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id.String()).Delete(&SnapshotRecord{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&RunRecord{}, "id = ?", id.String())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromRecord(rec RunRecord) (*Run, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	fp, err := strconv.ParseUint(rec.Fingerprint, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	run := &Run{
		ID:          id,
		Generation:  rec.Generation,
		Score:       rec.Score,
		Outcome:     simulation.Outcome{Collision: rec.Collision, Ticks: rec.Ticks},
		Fingerprint: fp,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.CandidateID != "" {
		if run.CandidateID, err = uuid.Parse(rec.CandidateID); err != nil {
			return nil, fmt.Errorf("candidate id: %w", err)
		}
	}
	if len(rec.Genome) > 0 && string(rec.Genome) != "null" {
		var g npc.Genome
		if err := json.Unmarshal(rec.Genome, &g); err != nil {
			return nil, fmt.Errorf("decode genome: %w", err)
		}
		run.Genome = &g
	}
	return run, nil
}

// Network rebuilds the stored policy network.
func (r *Run) Network() (*npc.Network, error) {
	if r.Genome == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingGenome, r.ID)
	}
	return r.Genome.Build()
}
