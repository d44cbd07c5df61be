package engine

import (
	"math/rand"
	"sync/atomic"
)

// UserAgentPolicy selects how a browser identity is picked per download.
type UserAgentPolicy string

const (
	PolicyFixed      UserAgentPolicy = "fixed"       // always the first agent
	PolicyRoundRobin UserAgentPolicy = "round-robin" // cycle through the pool
	PolicyRandom     UserAgentPolicy = "random"      // uniform pick per download
)

// DefaultUserAgents is the browser identity pool used when none is
// configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// UserAgentPool hands out user-agent strings according to a policy. Safe
// for concurrent use.
type UserAgentPool struct {
	agents  []string
	policy  UserAgentPolicy
	counter atomic.Uint64
}

// NewUserAgentPool creates a pool over the given agents. An empty slice
// falls back to [DefaultUserAgents]; an unknown policy falls back to
// round-robin, the documented default.
func NewUserAgentPool(agents []string, policy UserAgentPolicy) *UserAgentPool {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	switch policy {
	case PolicyFixed, PolicyRoundRobin, PolicyRandom:
	default:
		policy = PolicyRoundRobin
	}
	return &UserAgentPool{agents: agents, policy: policy}
}

// Next returns the user agent for one download.
func (p *UserAgentPool) Next() string {
	switch p.policy {
	case PolicyFixed:
		return p.agents[0]
	case PolicyRandom:
		return p.agents[rand.Intn(len(p.agents))]
	default:
		n := p.counter.Add(1) - 1
		return p.agents[n%uint64(len(p.agents))]
	}
}
