package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"file-storage/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func sampleProfile(bucket string) *Profile {
	return &Profile{
		Bucket:               bucket,
		Type:                 "minio",
		Endpoint:             "http://minio:9000",
		AccessKey:            "AKIAEXAMPLE",
		SecretKey:            "supersecret",
		Region:               "us-east-1",
		PathStyle:            true,
		TimeoutSeconds:       5,
		PresignExpirySeconds: 600,
	}
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Save(ctx, sampleProfile("beta")))
	require.NoError(t, store.Save(ctx, sampleProfile("alpha")))

	got, err := store.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got.Endpoint)
	assert.Equal(t, 600, got.PresignExpirySeconds)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Bucket)
	assert.Equal(t, "beta", list[1].Bucket)

	t.Run("Save Replaces", func(t *testing.T) {
		p := sampleProfile("alpha")
		p.Endpoint = "https://s3.example.com"
		require.NoError(t, store.Save(ctx, p))

		got, err := store.Get(ctx, "alpha")
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example.com", got.Endpoint)

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "beta"))
		_, err := store.Get(ctx, "beta")
		assert.ErrorIs(t, err, ErrProfileNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "beta"), ErrProfileNotFound)
	})
}

func TestStore_GetMissing(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestStore_MigrateIsRepeatable(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestStore_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectQuery("SELECT \\* FROM `storage_profiles`").WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), "files")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProfileNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfile_Config(t *testing.T) {
	cfg := sampleProfile("files").Config()
	assert.Equal(t, "files", cfg.Bucket)
	assert.Equal(t, 10*time.Minute, cfg.PresignExpiry)
	assert.NoError(t, cfg.Validate())

	back := FromConfig(cfg)
	assert.Equal(t, 600, back.PresignExpirySeconds)
	assert.Equal(t, "minio", back.Type)
}

func TestProfile_Masked(t *testing.T) {
	p := sampleProfile("files").Masked()
	assert.Equal(t, "AKIA****", p.AccessKey)
	assert.Equal(t, "supe****", p.SecretKey)
	assert.Equal(t, "****", Profile{SecretKey: "abc"}.Masked().SecretKey)
}
