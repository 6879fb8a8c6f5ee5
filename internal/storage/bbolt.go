package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/dehook/internal/settings"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")   // schema version, timestamps
	SettingsBucket = []byte("settings") // settings.StorageKey -> JSON aggregate
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
)

const (
	schemaVersion = "1"
	openTimeout   = time.Second
)

var settingsKey = []byte(settings.StorageKey)

// Bolt stores the aggregate in a BBolt file
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path. BBolt holds an exclusive
// file lock, so a second process gets an error after a short wait instead
// of blocking forever.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return &Bolt{db: db}, nil
}

// Path returns the database file path
func (b *Bolt) Path() string {
	return b.db.Path()
}

// Close closes the database
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Initialize creates the buckets and seeds the defaults on first run
func (b *Bolt) Initialize(_ context.Context) (bool, error) {
	var seeded bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, SettingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) == nil {
			if err := config.Put(ConfigVersion, []byte(schemaVersion)); err != nil {
				return err
			}
			created, _ := time.Now().MarshalBinary()
			if err := config.Put(ConfigCreated, created); err != nil {
				return err
			}
		}

		if tx.Bucket(SettingsBucket).Get(settingsKey) != nil {
			return nil
		}
		data, err := encode(settings.Default())
		if err != nil {
			return err
		}
		seeded = true
		return putSettings(tx, data)
	})
	return seeded, err
}

// IsInitialized checks if the database has been initialized
func (b *Bolt) IsInitialized() (bool, error) {
	var initialized bool
	err := b.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Read returns the stored aggregate or the defaults
func (b *Bolt) Read(_ context.Context) (*settings.AppSettings, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(SettingsBucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get(settingsKey); v != nil {
			// Make a copy since the slice is only valid during the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if data == nil {
		return settings.Default(), nil
	}
	return decode(data)
}

// Write replaces the aggregate in one transaction
func (b *Bolt) Write(_ context.Context, s *settings.AppSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := b.db.Update(func(tx *bolt.Tx) error {
		return putSettings(tx, data)
	}); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func putSettings(tx *bolt.Tx, data []byte) error {
	bucket, err := tx.CreateBucketIfNotExists(SettingsBucket)
	if err != nil {
		return err
	}
	if err := bucket.Put(settingsKey, data); err != nil {
		return err
	}
	config, err := tx.CreateBucketIfNotExists(ConfigBucket)
	if err != nil {
		return err
	}
	modified, _ := time.Now().MarshalBinary()
	return config.Put(ConfigModified, modified)
}

// Modified returns when the aggregate was last written
func (b *Bolt) Modified() (time.Time, error) {
	return b.timestamp(ConfigModified)
}

// Created returns when the database was initialized
func (b *Bolt) Created() (time.Time, error) {
	return b.timestamp(ConfigCreated)
}

func (b *Bolt) timestamp(key []byte) (time.Time, error) {
	var ts time.Time
	err := b.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(key)
		if data == nil {
			return fmt.Errorf("%s time not found", key)
		}
		return ts.UnmarshalBinary(data)
	})
	return ts, err
}

// Compact rewrites the database into a fresh file, reclaiming free pages,
// then swaps it into place and reopens it.
func (b *Bolt) Compact() error {
	srcPath := b.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = b.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})
	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}
	if err := b.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	b.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}
	return nil
}
