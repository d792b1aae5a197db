package store

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/skirmish"
)

// EpisodeRecord is one finished episode in the ledger
type EpisodeRecord struct {
	ID           uint               `gorm:"primaryKey"`
	EpisodeID    string             `gorm:"size:36;uniqueIndex"`
	Number       int                `gorm:"not null"`
	Steps        int                `gorm:"not null"`
	Cause        string             `gorm:"size:32;index"`
	Winner       string             `gorm:"size:8"` // empty when interrupted
	RewardA      float64            `gorm:"not null"`
	RewardB      float64            `gorm:"not null"`
	Hits         int                `gorm:"not null"`
	Shots        int                `gorm:"not null;default:0"`
	Reloads      int                `gorm:"not null;default:0"`
	AgentRewards map[string]float64 `gorm:"serializer:json"`
	CreatedAt    time.Time
}

// Stats counts the outcomes of the recorded episodes
type Stats struct {
	Episodes    int64
	WinsA       int64
	WinsB       int64
	Interrupted int64
}

type Store struct {
	db *gorm.DB
}

// Open opens, or creates, the ledger at path; ":memory:" keeps it in memory
func Open(path string) (*Store, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open episode store %s", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to access sql interface")
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&EpisodeRecord{}); err != nil {
		return nil, errors.Wrap(err, "could not migrate episode store")
	}

	utils.Debug("store", "episode store ready at "+path)

	return &Store{db: db}, nil
}

func MakeEpisodeRecord(summary skirmish.EpisodeSummary) EpisodeRecord {
	record := EpisodeRecord{
		EpisodeID:    summary.ID.String(),
		Number:       summary.Number,
		Steps:        summary.Steps,
		Cause:        summary.Cause.String(),
		RewardA:      summary.TeamRewards[0],
		RewardB:      summary.TeamRewards[1],
		Hits:         summary.Hits,
		Shots:        summary.Shots,
		Reloads:      summary.Reloads,
		AgentRewards: summary.AgentRewards,
	}

	if winner, ok := summary.Cause.Winner(); ok {
		record.Winner = winner.String()
	}

	return record
}

func (s *Store) SaveEpisode(summary skirmish.EpisodeSummary) (EpisodeRecord, error) {
	record := MakeEpisodeRecord(summary)
	if err := s.db.Create(&record).Error; err != nil {
		return record, errors.Wrapf(err, "could not save episode %s", record.EpisodeID)
	}

	return record, nil
}

// Episodes returns the most recent records first; limit <= 0 returns them all
func (s *Store) Episodes(limit int) ([]EpisodeRecord, error) {
	var records []EpisodeRecord

	query := s.db.Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "could not list episodes")
	}

	return records, nil
}

func (s *Store) Stats() (Stats, error) {
	var stats Stats

	counts := []struct {
		target *int64
		where  []interface{}
	}{
		{&stats.Episodes, nil},
		{&stats.WinsA, []interface{}{"winner = ?", "TeamA"}},
		{&stats.WinsB, []interface{}{"winner = ?", "TeamB"}},
		{&stats.Interrupted, []interface{}{"cause = ?", skirmish.EpisodeInterrupted.String()}},
	}

	for _, count := range counts {
		query := s.db.Model(&EpisodeRecord{})
		if count.where != nil {
			query = query.Where(count.where[0], count.where[1:]...)
		}

		if err := query.Count(count.target).Error; err != nil {
			return stats, errors.Wrap(err, "could not count episodes")
		}
	}

	return stats, nil
}

// Ping checks the database connection
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
