package types

type RefreshTileStatsRequest struct {
	OrganizationID string `json:"organization_id"`
	ForceRefresh   bool   `json:"forceRefresh"`
	TimeRange      string `json:"timeRange"`
	FilterBy       string `json:"filterBy"`
}

type TileStatsQuery struct {
	OrganizationID string `query:"organization_id"`
	TimeRange      string `query:"timeRange"`
	FilterBy       string `query:"filterBy"`
}
