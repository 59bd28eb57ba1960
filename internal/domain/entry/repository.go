package entry

import (
	"context"
	"errors"
)

// ErrNoData is returned by a Repository when nothing is stored under a key
var ErrNoData = errors.New("no data stored under key")

// Repository is the durable mirror of the entry list. The whole list is
// stored as one serialized blob under one key and overwritten on every
// mutation.
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
