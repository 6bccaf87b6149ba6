package domain

import (
	"strings"
)

type Level string

const (
	LevelRegions Level = "Regions"
	LevelC       Level = "C"
	LevelPR      Level = "PR"
	LevelCMA     Level = "CMA"
	LevelCD      Level = "CD"
	LevelCSD     Level = "CSD"
	LevelCT      Level = "CT"
	LevelDA      Level = "DA"
	LevelDB      Level = "DB"
	LevelEA      Level = "EA"
)

// Levels lists every aggregation level from coarsest to finest. EA only
// exists for the 1996 census, DB for 2001 onwards.
var Levels = []Level{LevelRegions, LevelC, LevelPR, LevelCMA, LevelCD, LevelCSD, LevelCT, LevelDA, LevelDB, LevelEA}

var geoUIDLength = map[Level]int{
	LevelC:   2,
	LevelPR:  2,
	LevelCMA: 5,
	LevelCD:  4,
	LevelCSD: 7,
	LevelCT:  10,
	LevelDA:  8,
	LevelDB:  10,
	LevelEA:  8,
}

// ParseLevel matches s case-insensitively against the known levels.
func ParseLevel(s string) (Level, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Levels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

// IsRegionLevel reports whether l may key a region selector. "Regions" is a
// retrieval level only.
func (l Level) IsRegionLevel() bool {
	_, ok := geoUIDLength[l]
	return ok
}

// GeoUIDLength is the number of characters of a GeoUID at this level, or 0
// when the level has no fixed length.
func (l Level) GeoUIDLength() int {
	return geoUIDLength[l]
}
