package order

import "github.com/google/uuid"

// QueryOrdersModel represents filter parameters for querying orders.
// Every non-empty field narrows the result; emails are compared in normalized form.
type QueryOrdersModel struct {
	Ids             []uuid.UUID `json:"ids,omitempty"`
	DisplayIds      []int64     `json:"displayIds,omitempty"`
	Emails          []string    `json:"emails,omitempty"`
	IdempotencyKeys []string    `json:"idempotencyKeys,omitempty"`
	Limit           int         `json:"limit,omitempty"`
	Offset          int         `json:"offset,omitempty"`
}
