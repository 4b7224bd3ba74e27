package core

import (
	"context"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const topologyCacheKeyPrefix = "creddef::agent_topology::v1"

func TopologyCacheKey(orgID string) string {
	return topologyCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(orgID))
}

// TopologyResolver derives the agent topology for an organization from the
// agent registry. Successful resolutions are cached when a cache is set.
type TopologyResolver struct {
	agents AgentStore
	cache  TopologyCache
	ttl    time.Duration
}

func NewTopologyResolver(agents AgentStore, cache TopologyCache, ttl time.Duration) *TopologyResolver {
	return &TopologyResolver{agents: agents, cache: cache, ttl: ttl}
}

func (r *TopologyResolver) Resolve(ctx context.Context, orgID string) (AgentTopology, error) {
	if r == nil || r.agents == nil {
		return AgentTopology{}, unexpectedError("core: agent store is not configured", nil)
	}
	orgID = strings.TrimSpace(orgID)
	key := TopologyCacheKey(orgID)
	if r.cache != nil && r.ttl > 0 {
		if cached, ok := r.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	details, found, err := r.agents.GetAgentDetailsByOrgID(ctx, orgID)
	if err != nil {
		return AgentTopology{}, err
	}
	if !found || strings.TrimSpace(details.AgentEndpoint) == "" {
		return AgentTopology{}, notFoundError("agent details not found for organization", map[string]any{"org_id": orgID})
	}

	agentTypeID, found, err := r.agents.GetAgentTypeID(ctx, orgID)
	if err != nil {
		return AgentTopology{}, err
	}
	if !found || strings.TrimSpace(agentTypeID) == "" {
		return AgentTopology{}, notFoundError("agent type not found for organization", map[string]any{"org_id": orgID})
	}
	rawClass, err := r.agents.GetOrgAgentType(ctx, agentTypeID)
	if err != nil {
		return AgentTopology{}, err
	}
	class, err := ParseTopologyClass(rawClass)
	if err != nil {
		return AgentTopology{}, unexpectedError(err.Error(), map[string]any{
			"org_id":        orgID,
			"agent_type_id": agentTypeID,
		})
	}

	topology := AgentTopology{
		AgentEndpoint: strings.TrimSpace(details.AgentEndpoint),
		OrgDID:        strings.TrimSpace(details.OrgDID),
		Class:         class,
	}
	switch class {
	case TopologyShared:
		topology.TenantID = strings.TrimSpace(details.TenantID)
		if topology.TenantID == "" {
			return AgentTopology{}, notFoundError("tenant not found for shared agent", map[string]any{"org_id": orgID})
		}
	case TopologyDedicated:
		// dedicated agents never carry a tenant id
	}

	if r.cache != nil && r.ttl > 0 {
		r.cache.Set(ctx, key, topology, r.ttl)
	}
	return topology, nil
}

// MemoryTopologyCache is an in-process TopologyCache with per-entry expiry.
type MemoryTopologyCache struct {
	cache *gocache.Cache
}

func NewMemoryTopologyCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryTopologyCache {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryTopologyCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryTopologyCache) Get(_ context.Context, key string) (AgentTopology, bool) {
	if c == nil || c.cache == nil {
		return AgentTopology{}, false
	}
	value, found := c.cache.Get(key)
	if !found {
		return AgentTopology{}, false
	}
	topology, ok := value.(AgentTopology)
	if !ok {
		return AgentTopology{}, false
	}
	return topology, true
}

func (c *MemoryTopologyCache) Set(_ context.Context, key string, value AgentTopology, ttl time.Duration) {
	if c == nil || c.cache == nil {
		return
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

func (c *MemoryTopologyCache) Delete(_ context.Context, key string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Delete(key)
}
