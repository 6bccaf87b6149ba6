package store

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ougirez/cancensus/internal/pkg/constants"
)

const (
	tableRegions = "census_regions"
	tableValues  = "census_values"
)

// rows per insert statement; keeps the bind parameter count well under the
// protocol limit of 65535
const defaultBatchSize = 1000

const schema = `
create table if not exists census_regions (
	dataset    text not null,
	geo_uid    text not null,
	type       text not null default '',
	name       text not null default '',
	population numeric,
	dwellings  numeric,
	households numeric,
	updated_at timestamptz not null default now(),
	primary key (dataset, geo_uid)
);

create table if not exists census_values (
	dataset    text not null,
	geo_uid    text not null,
	vector     text not null,
	value      numeric,
	updated_at timestamptz not null default now(),
	primary key (dataset, geo_uid, vector),
	foreign key (dataset, geo_uid) references census_regions (dataset, geo_uid) on delete cascade
);

create index if not exists census_values_vector_idx on census_values (dataset, vector);
`

var mapping = map[error]error{pgx.ErrNoRows: constants.ErrDBNotFound}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder возвращает squirrel SQL Builder обьект.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Migrate creates the warehouse tables if they do not exist.
func (s *store) Migrate(ctx context.Context) error {
	_, err := s.pool.Execx(ctx, squirrel.Expr(schema))
	return err
}
