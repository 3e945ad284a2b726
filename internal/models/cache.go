package models

import "time"

// CachePartition is a named bucket of cached responses, one per scope
// namespace, resource class and version tag.
type CachePartition struct {
	Name      string
	Namespace string
	Class     string
	Version   string
	CreatedAt time.Time
}

// CacheEntry is one cached response inside a partition. Generation is
// bumped on every write so a late background refresh can detect that
// it lost the race and must not overwrite a fresher entry.
type CacheEntry struct {
	Partition   string
	RequestKey  string
	Status      int
	ContentType string
	Body        []byte
	Generation  int64
	StoredAt    time.Time
}
