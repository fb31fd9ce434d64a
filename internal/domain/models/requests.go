package models

// Requests for the HTTP endpoints. Bound by echo, defaulted and validated in pkg/http.

type StockRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=12"`
	Period string `query:"period" json:"period" default:"annual" validate:"oneof=annual quarterly"`
}

type HistoryRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,max=12"`
	Period string `query:"period" json:"period" default:"annual" validate:"oneof=annual quarterly"`
	Limit  int    `query:"limit" json:"limit" default:"30" validate:"gte=1,lte=365"`
}

type SearchRequest struct {
	Query string `query:"q" json:"q" validate:"max=64"`
}
