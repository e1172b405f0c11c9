package model

// Template is a quick-reply snippet an operator can send with one action.
type Template struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	UsageCount int    `json:"usage_count"`
}
