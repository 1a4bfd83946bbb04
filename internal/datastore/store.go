package datastore

import (
	"fmt"

	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/trajectory"
	"gorm.io/gorm"
)

// insertBatchSize bounds the number of rows per INSERT.
const insertBatchSize = 500

// DataStore implements the shared query surface over a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// SaveDataset stores every fix of the dataset in one transaction so a failed
// run never leaves a partially written dataset behind.
func (ds *DataStore) SaveDataset(runID string, dataset *trajectory.Dataset) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Category(errors.CategoryDatabase).
			Build()
	}

	records := make([]FixRecord, 0, 256)
	for i := range dataset.Trajectories {
		tr := &dataset.Trajectories[i]
		for j := range tr.Fixes {
			records = append(records, newFixRecord(runID, &tr.Fixes[j], tr.Key))
		}
	}
	if len(records) == 0 {
		return nil
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(records, insertBatchSize).Error; err != nil {
			return errors.New(fmt.Errorf("failed to save fixes: %w", err)).
				Category(errors.CategoryDatabase).
				Context("rows", len(records)).
				Build()
		}
		return nil
	})
}

// GetTrajectory returns one trajectory's fixes ordered by frame.
func (ds *DataStore) GetTrajectory(runID, video string, globalID int) ([]FixRecord, error) {
	var records []FixRecord
	err := ds.DB.
		Where("run_id = ? AND video = ? AND trajectory_id = ?", runID, video, globalID).
		Order("frame ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return records, nil
}

// ListVideos returns the distinct videos of a run in lexicographic order.
func (ds *DataStore) ListVideos(runID string) ([]string, error) {
	var videos []string
	err := ds.DB.Model(&FixRecord{}).
		Where("run_id = ?", runID).
		Distinct("video").
		Order("video ASC").
		Pluck("video", &videos).Error
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return videos, nil
}

// ListTrajectories returns the global trajectory ids of one video in ascending order.
func (ds *DataStore) ListTrajectories(runID, video string) ([]int, error) {
	var ids []int
	err := ds.DB.Model(&FixRecord{}).
		Where("run_id = ? AND video = ?", runID, video).
		Distinct("trajectory_id").
		Order("trajectory_id ASC").
		Pluck("trajectory_id", &ids).Error
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return ids, nil
}

// GetRun returns every fix of a run in dataset order.
func (ds *DataStore) GetRun(runID string) ([]FixRecord, error) {
	var records []FixRecord
	err := ds.DB.
		Where("run_id = ?", runID).
		Order("video ASC, trajectory_id ASC, frame ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return records, nil
}
