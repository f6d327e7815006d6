package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type TrafficLightRuleRepository interface {
	ListActive() ([]model.TrafficLightRule, error)
	// ReplaceActive deactivates the current rule of every axis present in
	// rules and inserts the given rules as the active ones, atomically.
	ReplaceActive(rules []model.TrafficLightRule) error
}

type trafficLightRuleRepository struct {
	db *gorm.DB
}

func NewTrafficLightRuleRepository(db *gorm.DB) TrafficLightRuleRepository {
	return &trafficLightRuleRepository{db: db}
}

func (r *trafficLightRuleRepository) ListActive() ([]model.TrafficLightRule, error) {
	var rules []model.TrafficLightRule
	err := r.db.Where("active = ?", true).Order("axis ASC").Order("created_at DESC").Find(&rules).Error
	return rules, err
}

func (r *trafficLightRuleRepository) ReplaceActive(rules []model.TrafficLightRule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range rules {
			rule := &rules[i]
			if err := tx.Model(&model.TrafficLightRule{}).
				Where("axis = ? AND active = ?", rule.Axis, true).
				Update("active", false).Error; err != nil {
				return err
			}
			rule.Active = true
			if err := tx.Create(rule).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
