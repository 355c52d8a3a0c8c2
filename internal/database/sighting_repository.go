package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SightingRepository provides database operations for modem sightings
type SightingRepository struct {
	db *gorm.DB
}

// NewSightingRepository creates a new repository instance
func NewSightingRepository(db *gorm.DB) *SightingRepository {
	return &SightingRepository{db: db}
}

// Record stores a sighting. A known address keeps its FirstSeen, takes the
// new status and device lists and counts one more reply.
func (r *SightingRepository) Record(s *ModemSighting) error {
	if s == nil {
		return fmt.Errorf("sighting cannot be nil")
	}
	if !s.IsValid() {
		return fmt.Errorf("sighting is not valid: address=%q", s.Address)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing ModemSighting
		err := tx.Where("address = ?", s.Address).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.ReplyCount == 0 {
				s.ReplyCount = 1
			}
			return tx.Create(s).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&existing).Updates(map[string]interface{}{
			"audio_init_status": s.AudioInitStatus,
			"voice_init_status": s.VoiceInitStatus,
			"playback_devices":  s.PlaybackDevices,
			"capture_devices":   s.CaptureDevices,
			"last_seen":         s.LastSeen,
			"reply_count":       gorm.Expr("reply_count + ?", 1),
		}).Error
	})
}

// GetByAddress finds a sighting by modem address
func (r *SightingRepository) GetByAddress(address string) (*ModemSighting, error) {
	var s ModemSighting
	err := r.db.Where("address = ?", address).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns sightings, most recently seen first. limit <= 0 means all.
func (r *SightingRepository) List(limit int) ([]ModemSighting, error) {
	var sightings []ModemSighting
	q := r.db.Order("last_seen DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sightings).Error
	return sightings, err
}

// Count returns the number of distinct modem addresses seen
func (r *SightingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&ModemSighting{}).Count(&count).Error
	return count, err
}

// DeleteOlderThan removes sightings not seen since before and returns how
// many were removed
func (r *SightingRepository) DeleteOlderThan(before time.Time) (int64, error) {
	res := r.db.Where("last_seen < ?", before).Delete(&ModemSighting{})
	return res.RowsAffected, res.Error
}
