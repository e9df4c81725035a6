package audit

import "time"

// TimelineFilters narrows the audit trail query.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one recorded action in the trail.
type TimelineRow struct {
	At       time.Time      `json:"at"`
	ActorID  int64          `json:"actorId"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// PagingInfo carries simple page metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result bundles timeline rows with their paging metadata.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
