package disbursement

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

// AgentSelector picks the wallet agent that signs one issuer group's envelope. key identifies the
// pool (operator and issuer) for strategies that remember earlier picks.
type AgentSelector interface {
	Select(key string, agents []model.Agent) (model.Agent, error)
}

func NewAgentSelector(policy string) (AgentSelector, error) {
	switch policy {
	case "", consts.AgentSelectorRandom:
		return &randomSelector{}, nil
	case consts.AgentSelectorRoundRobin:
		return &roundRobinSelector{next: make(map[string]int)}, nil
	case consts.AgentSelectorLRU:
		return leastRecentlyUsedSelector{}, nil
	}
	return nil, fmt.Errorf("unknown agent selector policy %q", policy)
}

// eligible drops super agents; they fund the pool and never sign disbursements themselves.
func eligible(agents []model.Agent) []model.Agent {
	out := make([]model.Agent, 0, len(agents))
	for _, a := range agents {
		if !a.IsSuper {
			out = append(out, a)
		}
	}
	return out
}

type randomSelector struct{}

func (randomSelector) Select(key string, agents []model.Agent) (model.Agent, error) {
	pool := eligible(agents)
	if len(pool) == 0 {
		return model.Agent{}, fmt.Errorf("%s: %w", key, entity.ErrNoAgentAvailable)
	}
	return pool[rand.Intn(len(pool))], nil
}

type roundRobinSelector struct {
	mu   sync.Mutex
	next map[string]int
}

func (s *roundRobinSelector) Select(key string, agents []model.Agent) (model.Agent, error) {
	pool := eligible(agents)
	if len(pool) == 0 {
		return model.Agent{}, fmt.Errorf("%s: %w", key, entity.ErrNoAgentAvailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next[key] % len(pool)
	s.next[key] = i + 1
	return pool[i], nil
}

type leastRecentlyUsedSelector struct{}

func (leastRecentlyUsedSelector) Select(key string, agents []model.Agent) (model.Agent, error) {
	pool := eligible(agents)
	if len(pool) == 0 {
		return model.Agent{}, fmt.Errorf("%s: %w", key, entity.ErrNoAgentAvailable)
	}

	picked := pool[0]
	for _, a := range pool[1:] {
		if a.LastUsedTime < picked.LastUsedTime {
			picked = a
		}
	}
	return picked, nil
}
