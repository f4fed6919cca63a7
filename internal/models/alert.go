// Package models defines GORM data models for alertdesk.
package models

import "time"

// Alert is a single reported metric-threshold event.
// Rows are insert-only: the service never updates or deletes them.
type Alert struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Hostname string `gorm:"not null" json:"hostname"`
	Metric   string `gorm:"not null" json:"metric"`
	Value    int64  `gorm:"not null" json:"value"`
	Message  string `gorm:"not null" json:"message"`

	// CreatedAt is stored in UTC. The store fills it on insert when zero.
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

// TableName pins the table to "alerts" regardless of naming strategy.
func (Alert) TableName() string { return "alerts" }
