package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DatasetInfo struct {
	Dataset      string `json:"dataset"`
	Description  string `json:"description"`
	GeoDataset   string `json:"geo_dataset,omitempty"`
	Attribution  string `json:"attribution,omitempty"`
	Reference    string `json:"reference,omitempty"`
	ReferenceURL string `json:"reference_url,omitempty"`
}

type RegionInfo struct {
	Region          string              `json:"region"`
	Name            string              `json:"name"`
	Level           Level               `json:"level"`
	Pop             decimal.NullDecimal `json:"pop"`
	MunicipalStatus string              `json:"municipal_status,omitempty"`
	PRUID           string              `json:"PR_UID,omitempty"`
	CMAUID          string              `json:"CMA_UID,omitempty"`
	CDUID           string              `json:"CD_UID,omitempty"`
}

// Vector is one row of a dataset's vector catalog.
type Vector struct {
	Vector       string `json:"vector"`
	Type         string `json:"type"`
	Label        string `json:"label"`
	Units        string `json:"units"`
	ParentVector string `json:"parent_vector,omitempty"`
	Aggregation  string `json:"aggregation,omitempty"`
	Details      string `json:"details"`
}

func (v Vector) IsRoot() bool { return v.ParentVector == "" }

// CacheEntry describes one persisted cache blob.
type CacheEntry struct {
	Key       string    `json:"cache_key"`
	SizeBytes int64     `json:"size_bytes"`
	SizeHuman string    `json:"size,omitempty"`
	ModTime   time.Time `json:"modified"`
	Request   CacheMeta `json:"request"`
}

// CacheMeta names the logical request a cache blob answers.
type CacheMeta struct {
	Kind       string              `json:"kind"`
	Dataset    string              `json:"dataset,omitempty"`
	Level      Level               `json:"level,omitempty"`
	Regions    map[string][]string `json:"regions,omitempty"`
	Vectors    []string            `json:"vectors,omitempty"`
	GeoFormat  GeoFormat           `json:"geo_format,omitempty"`
	Labels     Labels              `json:"labels,omitempty"`
	Resolution Resolution          `json:"resolution,omitempty"`
}
