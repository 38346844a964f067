package main

import (
	"github.com/calldesk/dialdesk/internal/agent"
	"github.com/calldesk/dialdesk/internal/config"
	"github.com/calldesk/dialdesk/internal/queue"
)

// agentPolicy builds the state engine policy from config.
func agentPolicy(cfg *config.Config) agent.Policy {
	return agent.Policy{EnforceTransitions: cfg.Agents.EnforceTransitions}
}

// queuePolicy builds the queue lifecycle policy from config.
func queuePolicy(cfg *config.Config) queue.Policy {
	return queue.Policy{Strict: cfg.StrictQueue(), Lease: cfg.Lease()}
}
