package storage

// Persistence

type WriteResult struct {
	key         string // identity inside the backend (filename or bolt key)
	path        string
	contentHash string
}

func NewWriteResult(
	key string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		key:         key,
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) Key() string {
	return w.key
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
