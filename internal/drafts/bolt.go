package drafts

import (
	"context"
	"time"

	bolt "go.etcd.io/bbolt"
)

var draftsBucket = []byte("drafts")

type boltRecord struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Payload   []byte    `json:"payload"`
}

type boltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltStore keeps drafts in a single bbolt file at path.
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(draftsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db, now: time.Now}, nil
}

func (b *boltStore) Put(_ context.Context, k Key, payload []byte, expiresAt time.Time) error {
	raw, err := json.Marshal(boltRecord{ExpiresAt: expiresAt, Payload: payload})
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(draftsBucket).Put([]byte(k.String()), raw)
	})
}

func (b *boltStore) Get(_ context.Context, k Key) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(draftsBucket).Get([]byte(k.String()))
		if raw == nil {
			return ErrNotFound
		}
		var rec boltRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if !rec.ExpiresAt.After(b.now()) {
			return ErrNotFound
		}
		out = rec.Payload
		return nil
	})
	return out, err
}

func (b *boltStore) Delete(_ context.Context, k Key) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(draftsBucket).Delete([]byte(k.String()))
	})
}

func (b *boltStore) Sweep(_ context.Context, now time.Time) (int, error) {
	n := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(draftsBucket)
		var expired [][]byte
		err := bkt.ForEach(func(k, v []byte) error {
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil || !rec.ExpiresAt.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bkt.Delete(k); err != nil {
				return err
			}
		}
		n = len(expired)
		return nil
	})
	return n, err
}

func (b *boltStore) Ping(context.Context) error {
	return b.db.View(func(*bolt.Tx) error { return nil })
}

func (b *boltStore) Close() error { return b.db.Close() }
