package normalizer

import (
	"context"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/kodi/pkg/models"
)

const (
	SourceStaging = "staging"
	SourceLegacy  = "legacy"
)

// Source supplies raw rows to a normalization pass.
type Source interface {
	Name() string
	// Table names the backing table for error reporting.
	Table() string
	Exists(ctx context.Context) (bool, error)
	Rows(ctx context.Context) ([]Row, error)
}

type StagingReader interface {
	Table() string
	Exists(ctx context.Context) (bool, error)
	List(ctx context.Context) ([]models.StagingRow, error)
}

type LegacyReader interface {
	Table() string
	Exists(ctx context.Context) (bool, error)
	List(ctx context.Context) ([]models.LegacyRow, error)
}

type stagingSource struct {
	reader StagingReader
}

// NewStagingSource reads the staging buffer.
func NewStagingSource(reader StagingReader) Source {
	return &stagingSource{reader: reader}
}

func (s *stagingSource) Name() string  { return SourceStaging }
func (s *stagingSource) Table() string { return s.reader.Table() }

func (s *stagingSource) Exists(ctx context.Context) (bool, error) {
	return s.reader.Exists(ctx)
}

func (s *stagingSource) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.reader.List(ctx)
	if err != nil {
		return nil, err
	}
	return ectolinq.Map(rows, FromStaging), nil
}

type legacySource struct {
	reader LegacyReader
}

// NewLegacySource reads the flat spreadsheet table through the legacy adapter.
func NewLegacySource(reader LegacyReader) Source {
	return &legacySource{reader: reader}
}

func (s *legacySource) Name() string  { return SourceLegacy }
func (s *legacySource) Table() string { return s.reader.Table() }

func (s *legacySource) Exists(ctx context.Context) (bool, error) {
	return s.reader.Exists(ctx)
}

func (s *legacySource) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.reader.List(ctx)
	if err != nil {
		return nil, err
	}
	return ectolinq.Map(rows, FromLegacy), nil
}

// StaticSource serves rows held in memory. A nil slice behaves like a missing table.
type StaticSource struct {
	SourceName string
	Data       []Row
}

func (s StaticSource) Name() string {
	if s.SourceName == "" {
		return "static"
	}
	return s.SourceName
}

func (s StaticSource) Table() string { return s.Name() }

func (s StaticSource) Exists(context.Context) (bool, error) {
	return s.Data != nil, nil
}

func (s StaticSource) Rows(context.Context) ([]Row, error) {
	return s.Data, nil
}
