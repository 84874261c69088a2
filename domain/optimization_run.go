package domain

import (
	"time"

	"gorm.io/datatypes"
)

type OptimizationRun struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	AccountID  uint              `gorm:"column:account_id;index;not null" json:"account_id"`
	TraceID    string            `gorm:"column:trace_id" json:"trace_id"`
	NumOptions int               `gorm:"column:num_options" json:"num_options"`
	NumRecords int               `gorm:"column:num_records" json:"num_records"`
	Rejected   int               `gorm:"column:rejected" json:"rejected"`
	Shape      string            `gorm:"column:shape" json:"shape"`
	Cutoff     int               `gorm:"column:cutoff" json:"cutoff"`
	Output     string            `gorm:"column:output" json:"output"`
	Results    datatypes.JSONMap `gorm:"column:results;type:jsonb" json:"results"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OptimizationRun) TableName() string {
	return "optimization_runs"
}
