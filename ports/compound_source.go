package ports

import (
	"context"

	"molintel/domain/compound"
)

// CompoundSource answers the single parameterless read of the compound
// table. Implementations own whatever connection they need for the
// duration of the call.
type CompoundSource interface {
	FetchAll(ctx context.Context) (*compound.RawTable, error)
	Describe() string
}

// CompoundLoader produces a cleaned dataset, recovering from source
// failures into an empty dataset plus a diagnostic.
type CompoundLoader interface {
	Load(ctx context.Context) compound.LoadResult
}
