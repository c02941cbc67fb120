package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/pkg/failure"
	"github.com/babariviere/unibot/pkg/hashutil"
	"go.etcd.io/bbolt"
)

// BoltSink stores bodies in a bbolt bucket keyed by URL string.
type BoltSink struct {
	db           *bbolt.DB
	bucket       string
	metadataSink metadata.MetadataSink
}

// NewBoltSink opens (or creates) the database at "<file>:<bucket>".
func NewBoltSink(target string, metadataSink metadata.MetadataSink) (*BoltSink, failure.ClassifiedError) {
	file, bucket, ok := strings.Cut(target, ":")
	if !ok || file == "" || bucket == "" {
		return nil, &StorageError{
			Message:   fmt.Sprintf("bolt target %q does not have expected format \"<file>:<bucket>\"", target),
			Retryable: false,
			Cause:     ErrCauseInvalidTarget,
			Path:      target,
		}
	}

	db, err := bbolt.Open(file, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &StorageError{
			Message:   fmt.Sprintf("could not open database %q: %v", file, err),
			Retryable: false,
			Cause:     ErrCauseBackendUnavailable,
			Path:      file,
		}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, &StorageError{
			Message:   fmt.Sprintf("create bucket %q: %v", bucket, err),
			Retryable: false,
			Cause:     ErrCauseBackendUnavailable,
			Path:      file,
		}
	}

	return &BoltSink{
		db:           db,
		bucket:       bucket,
		metadataSink: metadataSink,
	}, nil
}

func (s *BoltSink) Write(u *url.URL, body []byte) (WriteResult, failure.ClassifiedError) {
	key := u.String()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(s.bucket))
		return b.Put([]byte(key), body)
	})
	if err != nil {
		storageErr := &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      s.db.Path(),
		}
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"BoltSink.Write",
			mapStorageErrorToMetadataCause(storageErr),
			storageErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, u.String()),
				metadata.NewAttr(metadata.AttrWritePath, s.db.Path()),
			},
		)
		return WriteResult{}, storageErr
	}

	contentHash, hashErr := hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)
	if hashErr != nil {
		return WriteResult{}, &StorageError{
			Message:   hashErr.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
			Path:      s.db.Path(),
		}
	}

	result := NewWriteResult(key, s.db.Path(), contentHash)
	s.metadataSink.RecordArtifact(
		metadata.ArtifactBody,
		result.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, u.String()),
			metadata.NewAttr(metadata.AttrField, result.ContentHash()),
		},
	)
	return result, nil
}

func (s *BoltSink) Close() {
	s.db.Close()
}
