package domain

import "time"

// OptimizerConfig overrides the process-wide optimizer defaults for one account.
type OptimizerConfig struct {
	AccountID  uint      `json:"account_id" gorm:"column:account_id;primaryKey"`
	Memory     bool      `json:"memory" gorm:"column:memory"`
	Shape      string    `json:"shape" gorm:"column:shape"`
	Cutoff     int       `json:"cutoff" gorm:"column:cutoff"`
	CutLevel   float64   `json:"cut_level" gorm:"column:cut_level"`
	Accelerate bool      `json:"accelerate" gorm:"column:accelerate"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (OptimizerConfig) TableName() string {
	return "optimizer_configs"
}
