// Package assignment balances new tickets across teams and agents by weighted
// workload. It is a greedy heuristic: every decision picks the currently least
// loaded candidate and concurrent decisions may pick the same one.
package assignment

import "github.com/spec-kit/resolveiq/internal/domain"

var weights = map[domain.TicketPriority]int{
	domain.PriorityP1: 5,
	domain.PriorityP2: 3,
	domain.PriorityP3: 2,
	domain.PriorityP4: 1,
}

// unknownWeight applies to tickets whose priority is not a known tier.
const unknownWeight = 1

// Weight is the workload contribution of one active ticket.
func Weight(p domain.TicketPriority) int {
	if w, ok := weights[p]; ok {
		return w
	}
	return unknownWeight
}

// AgentWorkload sums Weight over an agent's active tickets, given as counts per
// priority.
func AgentWorkload(counts map[domain.TicketPriority]int) int {
	total := 0
	for p, n := range counts {
		if n > 0 {
			total += Weight(p) * n
		}
	}
	return total
}

// TeamWorkload is the sum of the member workloads.
func TeamWorkload(memberLoads []int) int {
	total := 0
	for _, l := range memberLoads {
		total += l
	}
	return total
}
