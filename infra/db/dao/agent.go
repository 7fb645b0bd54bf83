package dao

import (
	"fmt"

	"github.com/radhian/payout-disbursement/infra/db/model"
)

func (d *dao) CreateAgent(agent *model.Agent) error {
	if err := d.db.Create(agent).Error; err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func (d *dao) GetAgents(operatorID int64, issuer string) ([]model.Agent, error) {
	var agents []model.Agent
	if err := d.db.
		Where("operator_id = ? AND issuer = ? AND is_super = ?", operatorID, issuer, false).
		Order("id ASC").
		Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (d *dao) UpdateAgentLastUsed(agentID int64, usedTime int64) error {
	if err := d.db.Model(&model.Agent{}).
		Where("id = ?", agentID).
		Update("last_used_time", usedTime).Error; err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return nil
}
