package models

import "time"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// ActivityLog is one append-only row of admin_activity_log.
type ActivityLog struct {
	ID        string                 `json:"id"`
	AdminID   *string                `json:"admin_id,omitempty"`
	Action    string                 `json:"action"`
	TableName string                 `json:"table_name"`
	RecordID  string                 `json:"record_id"`
	Details   map[string]interface{} `json:"details"`
	IPAddress string                 `json:"ip_address,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type ActivityFilter struct {
	TableName string
	RecordID  string
	AdminID   string
	Limit     int
}
