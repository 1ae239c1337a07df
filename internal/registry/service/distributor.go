package service

import (
	"context"
	"errors"

	"namegate/internal/registry/hierarchy"
	"namegate/internal/registry/models"
	dErrors "namegate/pkg/domain-errors"
	"namegate/pkg/platform/sentinel"
)

// planRewards walks the ancestor chain of name root-first and builds one
// credit per ancestor that is itself registered. Unregistered ancestors are
// skipped silently, so sparse hierarchies still reward the levels that exist.
// An empty name or zero reward short-circuits to no credits.
//
// Every qualifying ancestor receives the same flat reward; nothing decays
// across levels. The returned order is the decomposer's order, which is the
// order the credits' transfers and events later happen in.
func (s *Service) planRewards(ctx context.Context, name string, reward uint64) ([]models.RewardCredit, error) {
	if name == "" || reward == 0 {
		return nil, nil
	}

	var credits []models.RewardCredit
	for _, ancestor := range hierarchy.Ancestors(name) {
		record, err := s.store.Domain(ctx, ancestor)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ancestor")
		}
		if !record.Registered {
			continue
		}
		credits = append(credits, models.RewardCredit{
			Name:       ancestor,
			Controller: record.Controller,
			Amount:     reward,
		})
	}
	return credits, nil
}
