package models

// Requests for momentum HTTP endpoints. Defined in domain for consistency and reuse.

type RankingsRequest struct {
	N int `query:"n" json:"n" default:"20" validate:"gte=1,lte=500"`
}

type SeriesRequest struct {
	Symbols string `query:"symbols" json:"symbols" validate:"symbols"`
	Hours   int    `query:"hours" json:"hours" default:"6" validate:"gte=1,lte=24"`
}

type SnapshotsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Since  string `query:"since" json:"since"`
	Limit  int    `query:"limit" json:"limit" default:"5000" validate:"gte=1,lte=100000"`
}
