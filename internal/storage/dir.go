package storage

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/pkg/failure"
	"github.com/babariviere/unibot/pkg/fileutil"
	"github.com/babariviere/unibot/pkg/hashutil"
)

// DirSink writes each body to one regular file inside a directory.
// The filename is the URL string with ':' removed and '/', '\' replaced
// by '_'. The directory is created on first write.
type DirSink struct {
	dir          string
	metadataSink metadata.MetadataSink
}

func NewDirSink(dir string, metadataSink metadata.MetadataSink) DirSink {
	return DirSink{
		dir:          dir,
		metadataSink: metadataSink,
	}
}

func (s *DirSink) Write(u *url.URL, body []byte) (WriteResult, failure.ClassifiedError) {
	result, err := s.write(u, body)
	if err != nil {
		s.recordError(u, err)
		return WriteResult{}, err
	}
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

func (s *DirSink) write(u *url.URL, body []byte) (WriteResult, failure.ClassifiedError) {
	if err := fileutil.EnsureDir(s.dir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      s.dir,
		}
	}

	filename := fileutil.URLToFilename(u)
	fullPath := filepath.Join(s.dir, filename)

	if err := os.WriteFile(fullPath, body, 0644); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      fullPath,
		}
	}

	contentHash, err := hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
			Path:      fullPath,
		}
	}

	return NewWriteResult(filename, fullPath, contentHash), nil
}

func (s *DirSink) Close() {}

func (s *DirSink) recordError(u *url.URL, err failure.ClassifiedError) {
	path := s.dir
	cause := metadata.CauseStorageFailure
	if e, ok := err.(*StorageError); ok {
		path = e.Path
		cause = mapStorageErrorToMetadataCause(e)
	}
	s.metadataSink.RecordError(
		time.Now(),
		"storage",
		"DirSink.Write",
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, u.String()),
			metadata.NewAttr(metadata.AttrWritePath, path),
		},
	)
}
