package sla

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spec-kit/resolveiq/internal/domain"
	"gopkg.in/yaml.v3"
)

// PolicyLookup resolves the policy for a ticket type and priority. A missing
// policy is reported as (nil, nil).
type PolicyLookup interface {
	LookupPolicy(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SLAPolicy, error)
}

type policyKey struct {
	typeID   string
	priority domain.TicketPriority
}

// StaticPolicies is an in-memory policy table. The first policy for a key wins.
type StaticPolicies struct {
	byKey map[policyKey]domain.SLAPolicy
}

// NewStaticPolicies indexes policies by (type, priority).
func NewStaticPolicies(policies []domain.SLAPolicy) *StaticPolicies {
	s := &StaticPolicies{byKey: make(map[policyKey]domain.SLAPolicy, len(policies))}
	for _, p := range policies {
		k := policyKey{typeID: p.TypeID, priority: p.Priority}
		if _, exists := s.byKey[k]; exists {
			continue
		}
		s.byKey[k] = p
	}
	return s
}

// LookupPolicy implements PolicyLookup.
func (s *StaticPolicies) LookupPolicy(_ context.Context, typeID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	p, ok := s.byKey[policyKey{typeID: typeID, priority: priority}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Len returns the number of distinct keys.
func (s *StaticPolicies) Len() int { return len(s.byKey) }

type policyFile struct {
	Policies []policyEntry `yaml:"policies"`
}

type policyEntry struct {
	ID                string `yaml:"id"`
	TypeID            string `yaml:"type_id"`
	Priority          string `yaml:"priority"`
	ResponseMinutes   int    `yaml:"response_minutes"`
	ResolutionMinutes int    `yaml:"resolution_minutes"`
}

// LoadPolicyFile reads a YAML policy table:
//
//	policies:
//	  - type_id: network
//	    priority: P1
//	    response_minutes: 15
//	    resolution_minutes: 240
func LoadPolicyFile(path string) (*StaticPolicies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sla policy file: %w", err)
	}
	return ParsePolicies(data)
}

// ParsePolicies parses the YAML form accepted by LoadPolicyFile.
func ParsePolicies(data []byte) (*StaticPolicies, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sla policy yaml: %w", err)
	}
	policies := make([]domain.SLAPolicy, 0, len(f.Policies))
	for i, e := range f.Policies {
		priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(e.Priority)))
		if !priority.Valid() {
			return nil, fmt.Errorf("policy %d: unknown priority %q", i, e.Priority)
		}
		if strings.TrimSpace(e.TypeID) == "" {
			return nil, fmt.Errorf("policy %d: type_id is required", i)
		}
		if e.ResponseMinutes < 0 || e.ResolutionMinutes <= 0 {
			return nil, fmt.Errorf("policy %d: budgets must be positive", i)
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s:%s", e.TypeID, priority)
		}
		policies = append(policies, domain.SLAPolicy{
			ID:                id,
			TypeID:            e.TypeID,
			Priority:          priority,
			ResponseMinutes:   e.ResponseMinutes,
			ResolutionMinutes: e.ResolutionMinutes,
		})
	}
	return NewStaticPolicies(policies), nil
}
