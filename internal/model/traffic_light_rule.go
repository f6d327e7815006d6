package model

import "gorm.io/datatypes"

// TrafficLightRule holds the weights and thresholds of one axis. Only one
// rule per axis is expected to be active at a time.
type TrafficLightRule struct {
	Base
	Axis            string            `json:"axis" gorm:"not null;index"`
	ThresholdRed    int               `json:"thresholdRed" gorm:"not null"`
	ThresholdYellow int               `json:"thresholdYellow" gorm:"not null"`
	Weights         datatypes.JSONMap `json:"weights" gorm:"type:jsonb"`
	Active          bool              `json:"active" gorm:"not null;default:true;index"`
}
