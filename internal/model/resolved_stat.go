package model

import "time"

type StatError struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

type ResolvedStat struct {
	StatID         string     `json:"statId" msgpack:"statId"`
	Label          string     `json:"label" msgpack:"label"`
	Value          any        `json:"value" msgpack:"value"`
	FormattedValue string     `json:"formattedValue" msgpack:"formattedValue"`
	Format         string     `json:"format" msgpack:"format"`
	ExecutionTime  int64      `json:"executionTime" msgpack:"executionTime"`
	Error          *StatError `json:"error,omitempty" msgpack:"error,omitempty"`
}

func (s *ResolvedStat) Failed() bool {
	return s.Error != nil
}

type TileStatsMetadata struct {
	TileID          string    `json:"tileId" msgpack:"tileId"`
	OrganizationID  string    `json:"organizationId" msgpack:"organizationId"`
	ExecutionTime   int64     `json:"executionTime" msgpack:"executionTime"`
	TotalStats      int       `json:"totalStats" msgpack:"totalStats"`
	SuccessfulStats int       `json:"successfulStats" msgpack:"successfulStats"`
	FailedStats     int       `json:"failedStats" msgpack:"failedStats"`
	Cached          bool      `json:"cached" msgpack:"cached"`
	GeneratedAt     time.Time `json:"generatedAt" msgpack:"generatedAt"`
}

type TileStats struct {
	Success   bool               `json:"success" msgpack:"success"`
	Refreshed bool               `json:"refreshed,omitempty" msgpack:"-"`
	Stats     []*ResolvedStat    `json:"stats" msgpack:"stats"`
	Metadata  *TileStatsMetadata `json:"metadata" msgpack:"metadata"`
}
