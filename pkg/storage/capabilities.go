package storage

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketKey = "pid_capabilities"
	maskKey   = "supported_01_20"
)

// OpenDB открывает (или создаёт) bbolt-базу и гарантирует наличие bucket'а.
// База хранит только маску поддерживаемых PID - кеш возможностей ECU,
// а не историю образцов.
func OpenDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	// Создаём bucket, если его нет
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKey))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SaveSupportedMask сохраняет маску поддерживаемых PID 0x01..0x20.
func SaveSupportedMask(db *bolt.DB, mask uint32) error {
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, mask)
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketKey))
		return b.Put([]byte(maskKey), value)
	})
}

// LoadSupportedMask читает сохранённую маску.
// Второе значение false, если маска ещё не сохранялась.
func LoadSupportedMask(db *bolt.DB) (uint32, bool, error) {
	var mask uint32
	var found bool
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketKey))
		value := b.Get([]byte(maskKey))
		if len(value) != 4 {
			return nil
		}
		mask = binary.BigEndian.Uint32(value)
		found = true
		return nil
	})
	return mask, found, err
}

// ClearMask сбрасывает кешированную маску (например, перед rescan_pids).
func ClearMask(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketKey))
		return b.Delete([]byte(maskKey))
	})
}
