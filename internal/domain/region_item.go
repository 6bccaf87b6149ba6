package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegionItem is one region of an exported census table as stored in the
// warehouse.
type RegionItem struct {
	Dataset    string              `db:"dataset" json:"dataset"`
	GeoUID     string              `db:"geo_uid" json:"geo_uid"`
	Type       string              `db:"type" json:"type"`
	Name       string              `db:"name" json:"name"`
	Population decimal.NullDecimal `db:"population" json:"population"`
	Dwellings  decimal.NullDecimal `db:"dwellings" json:"dwellings"`
	Households decimal.NullDecimal `db:"households" json:"households"`
	UpdatedAt  time.Time           `db:"updated_at" json:"updated_at"`
}

// ValueItem is one vector value of one region.
type ValueItem struct {
	Dataset   string              `db:"dataset" json:"dataset"`
	GeoUID    string              `db:"geo_uid" json:"geo_uid"`
	Vector    string              `db:"vector" json:"vector"`
	Value     decimal.NullDecimal `db:"value" json:"value"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

type RegionValue struct {
	RegionItem
	Vector string              `db:"vector" json:"vector"`
	Value  decimal.NullDecimal `db:"value" json:"value"`
}
