package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	agentRepo "stayloom/database/repository/agent"
	"stayloom/models"
	"stayloom/utils"
)

const agentTokenDuration = 1 * time.Hour

// AgentHandler covers agent onboarding and token issuance. Registration is
// admin-guarded: the external trust system supplies the initial reputation.
type AgentHandler struct {
	repo agentRepo.AgentRepository
}

// NewAgentHandler creates the handler.
func NewAgentHandler(repo agentRepo.AgentRepository) *AgentHandler {
	return &AgentHandler{repo: repo}
}

// RegisterAgent handles POST /api/admin/agents.
func (h *AgentHandler) RegisterAgent(c *gin.Context) {
	var input struct {
		AgentID           string   `json:"agent_id" binding:"required"`
		Secret            string   `json:"secret" binding:"required"`
		InitialReputation float64  `json:"initial_reputation"`
		AllowedDomains    []string `json:"allowed_domains"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.InitialReputation < 0 || input.InitialReputation > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initial_reputation must be within [0, 1]"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Secret), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to hash secret", err.Error())
		return
	}

	agent := &models.Agent{
		AgentID:         input.AgentID,
		SecretHash:      string(hash),
		ReputationScore: input.InitialReputation,
		AllowedDomains:  input.AllowedDomains,
	}
	if err := h.repo.Create(c.Request.Context(), agent); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to register agent", err.Error())
		return
	}
	c.JSON(http.StatusCreated, agent)
}

// IssueToken handles POST /api/agents/token.
func (h *AgentHandler) IssueToken(c *gin.Context) {
	var input struct {
		AgentID string `json:"agent_id" binding:"required"`
		Secret  string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	agent, err := h.repo.GetByID(c.Request.Context(), input.AgentID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid agent credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(agent.SecretHash), []byte(input.Secret)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid agent credentials"})
		return
	}

	token, err := utils.GenerateAgentToken(agent.AgentID, agentTokenDuration)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to issue token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(agentTokenDuration.Seconds()),
	})
}
