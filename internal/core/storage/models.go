package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Models lists every table managed by Migrate.
var Models = []any{
	&RunRecord{},
	&SnapshotRecord{},
}

// RunRecord is the stored outcome of one simulated run.
type RunRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	CandidateID string `gorm:"size:36;index"`
	Generation  int    `gorm:"index"`
	Score       float64
	Collision   bool
	Ticks       int
	// Fingerprint is the trajectory hash in hex; uint64 overflows signed
	// integer columns.
	Fingerprint string `gorm:"size:16"`
	Genome      datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time

	Snapshots []SnapshotRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (RunRecord) TableName() string { return "runs" }

// SnapshotRecord holds the positions of every body after one tick.
type SnapshotRecord struct {
	ID        uint           `gorm:"primaryKey"`
	RunID     string         `gorm:"size:36;uniqueIndex:idx_run_tick"`
	Tick      int            `gorm:"uniqueIndex:idx_run_tick"`
	Positions datatypes.JSON `gorm:"not null"`
}

func (SnapshotRecord) TableName() string { return "snapshots" }
