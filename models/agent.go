package models

import "time"

// Agent represents an external software agent registered with the gateway.
// The reputation score is seeded by the external trust feed at onboarding
// and nudged after transaction outcomes; it always stays within [0, 1].
type Agent struct {
	AgentID         string    `bson:"agent_id" json:"agent_id"`
	SecretHash      string    `bson:"secret_hash" json:"-"`
	ReputationScore float64   `bson:"reputation_score" json:"reputation_score"`
	AllowedDomains  []string  `bson:"allowed_domains" json:"allowed_domains"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}
