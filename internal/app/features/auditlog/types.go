// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/templehub/internal/app/store/audit"
)

// listItem is one audit event with member names resolved.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       *int64            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"`
	MemberID      *int64            `json:"member_id,omitempty"`
	MemberName    string            `json:"member_name,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events  []listItem `json:"events"`
	Total   int64      `json:"total"`
	HasMore bool       `json:"hasMore"`
}

// categories lists the accepted category filters.
var categories = map[string]bool{
	audit.CategoryAuth:  true,
	audit.CategoryAdmin: true,
}
