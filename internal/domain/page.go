package domain

// Filter narrows a paginated list. Zero values mean "no constraint".
type Filter struct {
	Search     string `json:"search,omitempty"`
	StatusID   string `json:"status,omitempty"`
	SourceID   string `json:"source,omitempty"`
	TagID      string `json:"tag,omitempty"`
	CampaignID string `json:"campaign,omitempty"`
}

// Page is one page of a list as reported by the server. The pagination
// envelope members are optional; servers report whichever they know.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  *int  `json:"total,omitempty"`
	TotalPages  *int  `json:"totalPages,omitempty"`
	HasNextPage *bool `json:"hasNextPage,omitempty"`
}
