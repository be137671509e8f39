package main

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

type SendSMSRequest struct {
	MessageID   string `json:"message_id"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Sender      string `json:"sender"`
	Content     string `json:"content" binding:"required"`
}

type SendSMSResponse struct {
	MessageID   string         `json:"message_id"`
	Status      DeliveryStatus `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	OperatorID  string         `json:"operator_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SendMailRequest is the subset of the SendGrid v3 mail body we look at.
type SendMailRequest struct {
	Personalizations []struct {
		To []mailAddress `json:"to"`
	} `json:"personalizations" binding:"required,min=1"`
	From    mailAddress `json:"from" binding:"required"`
	Subject string      `json:"subject"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	OperatorID  string    `json:"operator_id"`
	Timestamp   time.Time `json:"timestamp"`
	FailureRate float64   `json:"failure_rate"`
}

var errorCodes = map[string]string{
	"INVALID_NUMBER":    "The phone number is invalid or not in service",
	"BLOCKED":           "The recipient has blocked messages",
	"INVALID_CONTENT":   "Message content violates operator policies",
	"OPERATOR_REJECTED": "Operator rejected the message",
}

var errorCodeList = []string{"INVALID_NUMBER", "BLOCKED", "INVALID_CONTENT", "OPERATOR_REJECTED"}

// MockProvider simulates both an SMS operator and the SendGrid mail API.
type MockProvider struct {
	mu          sync.Mutex
	failureRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	apiKey      string
	operatorID  string
	rng         *rand.Rand
}

func NewMockProvider(failureRate float64, minDelay, maxDelay time.Duration, apiKey string) *MockProvider {
	return &MockProvider{
		failureRate: failureRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		apiKey:      apiKey,
		operatorID:  "MOCK_" + uuid.NewString()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *MockProvider) shouldFail() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.failureRate
}

func (p *MockProvider) delay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxDelay <= p.minDelay {
		return p.minDelay
	}
	return p.minDelay + time.Duration(p.rng.Int63n(int64(p.maxDelay-p.minDelay)))
}

func (p *MockProvider) randomErrorCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errorCodeList[p.rng.Intn(len(errorCodeList))]
}

func (p *MockProvider) setFailureRate(rate float64) {
	p.mu.Lock()
	p.failureRate = rate
	p.mu.Unlock()
}

func (p *MockProvider) getFailureRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failureRate
}

func (p *MockProvider) SendSMS(c *gin.Context) {
	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if req.MessageID == "" {
		req.MessageID = uuid.NewString()
	}

	time.Sleep(p.delay())

	resp := SendSMSResponse{
		MessageID:   req.MessageID,
		OperatorID:  p.operatorID,
		ProcessedAt: time.Now(),
		Status:      StatusDelivered,
	}
	if p.shouldFail() {
		resp.Status = StatusFailed
		resp.ErrorCode = p.randomErrorCode()
		resp.ErrorMsg = errorCodes[resp.ErrorCode]
		log.Warn().Str("message_id", req.MessageID).Str("phone", req.PhoneNumber).Str("error_code", resp.ErrorCode).Msg("sms rejected")
		c.JSON(http.StatusAccepted, resp)
		return
	}

	log.Info().Str("message_id", req.MessageID).Str("phone", req.PhoneNumber).Str("sender", req.Sender).Msg("sms delivered")
	c.JSON(http.StatusOK, resp)
}

func (p *MockProvider) SendMail(c *gin.Context) {
	if p.apiKey != "" && c.GetHeader("Authorization") != "Bearer "+p.apiKey {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": []gin.H{{"message": "The provided authorization grant is invalid, expired, or revoked"}}})
		return
	}

	var req SendMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": err.Error()}}})
		return
	}

	time.Sleep(p.delay())

	if p.shouldFail() {
		log.Warn().Str("subject", req.Subject).Msg("mail rejected")
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": "Does not contain a valid address.", "field": "personalizations.0.to"}}})
		return
	}

	id := uuid.NewString()
	log.Info().Str("message_id", id).Str("from", req.From.Email).Str("subject", req.Subject).Msg("mail accepted")
	c.Header("X-Message-Id", id)
	c.Status(http.StatusAccepted)
}

func (p *MockProvider) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		OperatorID:  p.operatorID,
		Timestamp:   time.Now(),
		FailureRate: p.getFailureRate(),
	})
}

// UpdateConfig changes the failure rate at runtime.
func (p *MockProvider) UpdateConfig(c *gin.Context) {
	var body struct {
		FailureRate *float64 `json:"failure_rate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if *body.FailureRate < 0 || *body.FailureRate > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failure_rate must be between 0 and 1"})
		return
	}
	p.setFailureRate(*body.FailureRate)
	log.Info().Float64("failure_rate", *body.FailureRate).Msg("updated failure rate")
	c.JSON(http.StatusOK, gin.H{"failure_rate": *body.FailureRate})
}

func SetupRouter(p *MockProvider) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sms/send", p.SendSMS)
		v1.PUT("/config", p.UpdateConfig)
	}
	router.POST("/v3/mail/send", p.SendMail)
	router.GET("/health", p.HealthCheck)

	return router
}
