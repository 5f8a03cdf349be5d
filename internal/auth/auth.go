package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/haulbridge/freightex-api/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid API credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// Principal roles carried in tokens.
const (
	RoleShipper = "shipper"
	RoleCarrier = "carrier"
)

// Test credentials
var (
	TestShipperAPIKey    = "test-shipper-key"
	TestShipperAPISecret = "test-shipper-secret"
	TestCarrierAPIKey    = "test-carrier-key"
	TestCarrierAPISecret = "test-carrier-secret"
)

// Credentials represents the API authentication credentials
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// TokenResponse represents the JWT token response
type TokenResponse struct {
	Token      string    `json:"jwt_token"`
	Expiration time.Time `json:"expiration"`
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	PartyID string `json:"party_id"`
	Role    string `json:"role"` // shipper or carrier
}

// principal ties an API key to the directory record it acts for.
type principal struct {
	apiSecret string
	partyID   string
	role      string
}

// Service handles authentication and authorization operations
type Service struct {
	jwtSecret []byte
	// In a real implementation, this would be replaced with a database
	apiCredentials map[string]principal // map[APIKey]principal
}

// NewService creates a new authentication service with the given JWT secret
func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		// This is just for demonstration - in production, use a proper database
		apiCredentials: make(map[string]principal),
	}
}

// GenerateToken generates a JWT token for valid API credentials
// The token includes party ID and role with 24-hour expiration
func (s *Service) GenerateToken(creds Credentials) (*TokenResponse, error) {
	p, ok := s.validateCredentials(creds)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	// Create token expiration time (24 hours from now)
	expiration := time.Now().Add(24 * time.Hour)

	// Create the claims
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		PartyID: p.partyID,
		Role:    p.role,
	}

	// Create the token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign the token
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
// Verifies token signature and expiration
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// validateCredentials checks if the API credentials are valid
func (s *Service) validateCredentials(creds Credentials) (principal, bool) {
	p, exists := s.apiCredentials[creds.APIKey]
	if !exists || p.apiSecret != creds.APISecret {
		return principal{}, false
	}
	return p, true
}

// RegisterAPICredentials registers new API credentials for a party
// (for testing/demo purposes)
func (s *Service) RegisterAPICredentials(apiKey, apiSecret, partyID, role string) {
	s.apiCredentials[apiKey] = principal{
		apiSecret: apiSecret,
		partyID:   partyID,
		role:      role,
	}
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GenerateTokenHandler handles POST requests to generate JWT tokens
// Request body should contain API credentials
func (h *GinHandlers) GenerateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds Credentials
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.GenerateToken(creds)
		if err == ErrInvalidCredentials {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// GetPartyID extracts the party ID from a JWT token
// Returns empty string if party ID is not found or invalid
func GetPartyID(claims interface{}) string {
	if jwtClaims, ok := claims.(jwt.MapClaims); ok {
		if partyID, ok := jwtClaims["party_id"].(string); ok {
			return partyID
		}
	}
	return ""
}

// GetRole extracts the principal role from a JWT token
func GetRole(claims interface{}) string {
	if jwtClaims, ok := claims.(jwt.MapClaims); ok {
		if role, ok := jwtClaims["role"].(string); ok {
			return role
		}
	}
	return ""
}
