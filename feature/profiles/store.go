package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"file-storage/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileNotFound is returned when no profile exists for a bucket.
var ErrProfileNotFound = errors.New("profile not found")

// Store persists profiles in the storage_profiles table.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the table and checks that every column is present.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&Profile{}); err != nil {
		return fmt.Errorf("failed to migrate profiles: %w", err)
	}

	missing, err := database.MissingColumns(db, Profile{}.TableName(), Columns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", Profile{}.TableName(), strings.Join(missing, ", "))
	}
	return nil
}

// Get returns the profile for bucket.
func (s *Store) Get(ctx context.Context, bucket string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).Where("bucket = ?", bucket).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", bucket, err)
	}
	return &p, nil
}

// List returns every profile ordered by bucket.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	var out []Profile
	if err := s.db.WithContext(ctx).Order("bucket").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return out, nil
}

// Save inserts the profile or replaces the existing one for the same bucket.
func (s *Store) Save(ctx context.Context, p *Profile) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "endpoint", "access_key", "secret_key", "region", "path_style", "timeout_seconds", "presign_expiry_seconds", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.Bucket, err)
	}
	return nil
}

// Delete removes the profile for bucket.
func (s *Store) Delete(ctx context.Context, bucket string) error {
	res := s.db.WithContext(ctx).Where("bucket = ?", bucket).Delete(&Profile{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete profile %s: %w", bucket, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, bucket)
	}
	return nil
}
