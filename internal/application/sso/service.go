// Package sso emite y consume los tokens de traspaso de un solo uso hacia las apps del marketplace.
package sso

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/metrics"
	"github.com/jhoicas/saas-dashboard/pkg/jwt"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// Mensajes que reciben las apps destino; forman parte del contrato y no se traducen.
var (
	ErrInvalidToken  = errors.New("Invalid or expired token")
	ErrTokenNotFound = errors.New("Token not found in database")
	ErrTokenUsed     = errors.New("Token has already been used")
	ErrTokenExpired  = errors.New("Token has expired")
	ErrWrongApp      = errors.New("Token was not issued for this app")
)

// DefaultExpirationMinutes vigencia por defecto de un token.
const DefaultExpirationMinutes = 5

// Payload datos del usuario que viajan firmados hacia la app destino.
// IssuedAt y ExpiresAt en milisegundos Unix.
type Payload struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	TargetApp   string   `json:"targetApp"`
	Permissions []string `json:"permissions"`
	IssuedAt    int64    `json:"issuedAt"`
	ExpiresAt   int64    `json:"expiresAt"`
	Nonce       string   `json:"nonce"`
}

// Claims payload más los claims registrados (iss, sub, aud, iat, exp, jti).
type Claims struct {
	gojwt.RegisteredClaims
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	TargetApp   string   `json:"targetApp"`
	Permissions []string `json:"permissions"`
	IssuedAtMs  int64    `json:"issuedAt"`
	ExpiresAtMs int64    `json:"expiresAt"`
	Nonce       string   `json:"nonce"`
}

// Payload extrae la parte de negocio de los claims.
func (c *Claims) Payload() *Payload {
	return &Payload{
		UserID:      c.UserID,
		Email:       c.Email,
		Name:        c.Name,
		Role:        c.Role,
		TargetApp:   c.TargetApp,
		Permissions: c.Permissions,
		IssuedAt:    c.IssuedAtMs,
		ExpiresAt:   c.ExpiresAtMs,
		Nonce:       c.Nonce,
	}
}

// GenerateRequest datos para firmar un token. ExpirationMinutes <= 0 usa el valor configurado.
type GenerateRequest struct {
	UserID            string
	Email             string
	Name              string
	Role              string
	TargetApp         string
	Permissions       []string
	ExpirationMinutes int
}

// IssueRequest GenerateRequest más el contexto del cliente que se persiste.
type IssueRequest struct {
	GenerateRequest
	IPAddress string
	UserAgent string
}

// GeneratedToken token firmado listo para enviar a la app destino. ExpiresAt en ms Unix.
type GeneratedToken struct {
	Token     string
	ExpiresAt int64
	TargetApp string
	Nonce     string
}

// ValidationResult resultado de ValidateAndMarkTokenUsed. Error lleva el mensaje del contrato;
// Err el error original para decidir el código HTTP.
type ValidationResult struct {
	Valid   bool
	Payload *Payload
	Error   string
	Err     error
}

// TokenInfo estado de un token sin consumirlo.
type TokenInfo struct {
	Payload   *Payload
	Used      bool
	UsedAt    *time.Time
	ExpiresAt time.Time
}

// Options configuración del servicio.
type Options struct {
	Secret            string
	Issuer            string
	ExpirationMinutes int
}

// Service emite, valida y purga tokens SSO.
type Service struct {
	store             repository.SSOTokenRepository
	secret            string
	issuer            string
	expirationMinutes int
	log               *logger.Logger
	now               func() time.Time
}

// NewService construye el servicio sobre el almacén de tokens (Postgres o Mongo).
func NewService(store repository.SSOTokenRepository, opts Options, log *logger.Logger) *Service {
	exp := opts.ExpirationMinutes
	if exp <= 0 {
		exp = DefaultExpirationMinutes
	}
	return &Service{
		store:             store,
		secret:            opts.Secret,
		issuer:            opts.Issuer,
		expirationMinutes: exp,
		log:               log.Component("sso"),
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// HashToken SHA-256 en hex; es lo único que se persiste del token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Generate firma un token sin persistirlo. Cada token lleva un nonce único.
func (s *Service) Generate(req GenerateRequest) (*GeneratedToken, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.TargetApp) == "" {
		return nil, fmt.Errorf("%w: userId y targetApp son obligatorios", domain.ErrInvalidInput)
	}
	minutes := req.ExpirationMinutes
	if minutes <= 0 {
		minutes = s.expirationMinutes
	}

	now := s.now()
	expires := now.Add(time.Duration(minutes) * time.Minute)
	nonce := uuid.NewString()
	permissions := req.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   req.UserID,
			Audience:  gojwt.ClaimStrings{req.TargetApp},
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expires),
			ID:        nonce,
		},
		UserID:      req.UserID,
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		TargetApp:   req.TargetApp,
		Permissions: permissions,
		IssuedAtMs:  now.UnixMilli(),
		ExpiresAtMs: expires.UnixMilli(),
		Nonce:       nonce,
	}
	token, err := jwt.Sign(s.secret, claims)
	if err != nil {
		return nil, fmt.Errorf("firmar token sso: %w", err)
	}
	return &GeneratedToken{Token: token, ExpiresAt: expires.UnixMilli(), TargetApp: req.TargetApp, Nonce: nonce}, nil
}

// Issue genera el token y persiste su hash con el contexto del cliente.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*GeneratedToken, error) {
	gen, err := s.Generate(req.GenerateRequest)
	if err != nil {
		return nil, err
	}
	rec := &entity.SSOToken{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		TargetApp: req.TargetApp,
		TokenHash: HashToken(gen.Token),
		Nonce:     gen.Nonce,
		ExpiresAt: time.UnixMilli(gen.ExpiresAt).UTC(),
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("guardar token sso: %w", err)
	}
	metrics.SSOTokensIssued.WithLabelValues(req.TargetApp).Inc()
	s.log.Info().Str("user_id", req.UserID).Str("app", req.TargetApp).Str("nonce", gen.Nonce).Msg("token sso emitido")
	return gen, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	var claims Claims
	opts := []gojwt.ParserOption{gojwt.WithTimeFunc(s.now)}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}
	if err := jwt.ParseInto(s.secret, token, &claims, opts...); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ValidateAndMarkTokenUsed verifica firma y vencimiento y consume el token de forma atómica.
// Con validaciones concurrentes del mismo token solo una resulta válida.
func (s *Service) ValidateAndMarkTokenUsed(ctx context.Context, token string) ValidationResult {
	return s.ValidateForApp(ctx, token, "")
}

// ValidateForApp como ValidateAndMarkTokenUsed, pero solo consume el token si fue emitido para appSlug.
// Un token de otra app se rechaza sin marcarlo como usado. appSlug vacío omite la comprobación.
func (s *Service) ValidateForApp(ctx context.Context, token, appSlug string) ValidationResult {
	res := s.validate(ctx, token, appSlug)
	result := "valid"
	if !res.Valid {
		result = resultLabel(res.Err)
	}
	metrics.SSOValidations.WithLabelValues(result).Inc()
	return res
}

func (s *Service) validate(ctx context.Context, token, appSlug string) ValidationResult {
	claims, err := s.parse(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("token sso rechazado")
		return invalid(ErrInvalidToken)
	}
	if appSlug != "" && claims.TargetApp != appSlug {
		s.log.Warn().Str("user_id", claims.UserID).Str("target_app", claims.TargetApp).Str("app", appSlug).
			Msg("token sso presentado por otra app")
		return invalid(ErrWrongApp)
	}

	now := s.now()
	hash := HashToken(token)
	rec, err := s.store.ConsumeUnused(ctx, hash, now)
	if err != nil {
		s.log.Error().Err(err).Msg("consumir token sso")
		return ValidationResult{Error: "Token validation failed", Err: fmt.Errorf("consumir token: %w", err)}
	}
	if rec != nil {
		s.log.Info().Str("user_id", claims.UserID).Str("app", claims.TargetApp).Msg("token sso consumido")
		return ValidationResult{Valid: true, Payload: claims.Payload()}
	}

	// Ninguna fila cumplió la condición: se clasifica el motivo.
	stored, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		s.log.Error().Err(err).Msg("buscar token sso")
		return ValidationResult{Error: "Token validation failed", Err: fmt.Errorf("buscar token: %w", err)}
	}
	switch {
	case stored == nil:
		return invalid(ErrTokenNotFound)
	case stored.IsUsed():
		s.log.Warn().Str("user_id", stored.UserID).Str("app", stored.TargetApp).Msg("reintento de uso de token sso")
		return invalid(ErrTokenUsed)
	case !stored.ExpiresAt.After(now):
		return invalid(ErrTokenExpired)
	default:
		return invalid(ErrInvalidToken)
	}
}

func invalid(err error) ValidationResult {
	return ValidationResult{Error: err.Error(), Err: err}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrTokenUsed):
		return "already_used"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrWrongApp):
		return "wrong_app"
	default:
		return "error"
	}
}

// IsTokenError indica si err es uno de los rechazos esperados (401) y no un fallo interno.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenUsed) || errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrWrongApp)
}

// GetTokenInfo informa el estado del token sin consumirlo.
func (s *Service) GetTokenInfo(ctx context.Context, token string) (*TokenInfo, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	stored, err := s.store.FindByHash(ctx, HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("buscar token: %w", err)
	}
	if stored == nil {
		return nil, ErrTokenNotFound
	}
	return &TokenInfo{
		Payload:   claims.Payload(),
		Used:      stored.IsUsed(),
		UsedAt:    stored.UsedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// SweepExpired elimina los tokens vencidos hace más de retention.
func (s *Service) SweepExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	n, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purgar tokens sso: %w", err)
	}
	metrics.SSOTokensSwept.Add(float64(n))
	return n, nil
}
