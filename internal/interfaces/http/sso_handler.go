package http

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/application/sso"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// tokenService lo implementa *sso.Service.
type tokenService interface {
	Issue(ctx context.Context, req sso.IssueRequest) (*sso.GeneratedToken, error)
	ValidateForApp(ctx context.Context, token, appSlug string) sso.ValidationResult
	GetTokenInfo(ctx context.Context, token string) (*sso.TokenInfo, error)
}

// appFinder lo implementa el repositorio de apps.
type appFinder interface {
	GetActiveBySlug(ctx context.Context, slug string) (*entity.App, error)
}

// SSOHandler emisión y validación de tokens de traspaso hacia las apps.
type SSOHandler struct {
	tokens tokenService
	apps   appFinder
}

// NewSSOHandler construye el handler.
func NewSSOHandler(tokens tokenService, apps appFinder) *SSOHandler {
	return &SSOHandler{tokens: tokens, apps: apps}
}

// Generate godoc
// @Summary      Emitir token SSO hacia una app
// @Description  Requiere acceso a la app; devuelve la URL de redirección con ?token=.
// @Tags         sso
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateTokenRequest  true  "App destino"
// @Success      200   {object}  dto.GenerateTokenResponse
// @Failure      402   {object}  dto.AccessDeniedResponse
// @Failure      403   {object}  dto.AccessDeniedResponse
// @Failure      404   {object}  dto.AccessDeniedResponse
// @Router       /api/sso/generate [post]
func (h *SSOHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateTokenRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	app, err := h.apps.GetActiveBySlug(c.UserContext(), in.AppSlug)
	if err != nil {
		return respondError(c, err)
	}
	if app == nil {
		return respondError(c, domain.ErrAppNotFound)
	}

	id := GetIdentity(c)
	gen, err := h.tokens.Issue(c.UserContext(), sso.IssueRequest{
		GenerateRequest: sso.GenerateRequest{
			UserID:            id.Subject,
			Email:             id.Email,
			Name:              id.Name,
			Role:              id.Role,
			TargetApp:         app.Slug,
			ExpirationMinutes: in.ExpirationMinutes,
		},
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.GenerateTokenResponse{
		Token:       gen.Token,
		ExpiresAt:   gen.ExpiresAt,
		TargetApp:   gen.TargetApp,
		RedirectURL: redirectURL(app.SSOURL, gen.Token),
	})
}

// Validate godoc
// @Summary      Validar y consumir un token SSO
// @Description  Lo llama la app destino con su API key. Un token solo es válido una vez y solo para la app a la que se emitió.
// @Tags         sso
// @Produce      json
// @Param        X-App-Slug     header  string  true  "Slug de la app"
// @Param        X-API-Key      header  string  true  "API key de la app"
// @Param        Authorization  header  string  true  "Bearer <token sso>"
// @Success      200  {object}  dto.ValidateTokenResponse
// @Failure      401  {object}  dto.ValidateTokenResponse
// @Router       /api/sso/validate [post]
func (h *SSOHandler) Validate(c *fiber.Ctx) error {
	token := ssoToken(c)
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidateTokenResponse{Error: "Token is required"})
	}
	// Solo la app destino del token puede consumirlo; GetAppSlug lo fija AppKeyMiddleware.
	res := h.tokens.ValidateForApp(c.UserContext(), token, GetAppSlug(c))
	if res.Valid {
		return c.JSON(dto.ValidateTokenResponse{Valid: true, Payload: toSSOPayload(res.Payload)})
	}
	status := fiber.StatusUnauthorized
	if !sso.IsTokenError(res.Err) {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(dto.ValidateTokenResponse{Error: res.Error})
}

// TokenInfo godoc
// @Summary      Estado de un token SSO sin consumirlo
// @Tags         sso
// @Produce      json
// @Param        X-App-Slug  header  string  true  "Slug de la app"
// @Param        X-API-Key   header  string  true  "API key de la app"
// @Param        token       query   string  false "Token (o Authorization: Bearer)"
// @Success      200  {object}  dto.TokenInfoResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/sso/token-info [get]
func (h *SSOHandler) TokenInfo(c *fiber.Ctx) error {
	token := ssoToken(c)
	if token == "" {
		return badRequest("VALIDATION", "token es requerido")
	}
	info, err := h.tokens.GetTokenInfo(c.UserContext(), token)
	if err != nil {
		if sso.IsTokenError(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: err.Error()})
		}
		return err
	}
	return c.JSON(dto.TokenInfoResponse{
		Payload:   toSSOPayload(info.Payload),
		Used:      info.Used,
		UsedAt:    info.UsedAt,
		ExpiresAt: info.ExpiresAt,
	})
}

// ssoToken Authorization: Bearer, luego ?token= y por último {"token": ...}.
func ssoToken(c *fiber.Ctx) string {
	if tok, errResp := bearerToken(c); errResp == nil {
		return tok
	}
	if tok := strings.TrimSpace(c.Query("token")); tok != "" {
		return tok
	}
	var in struct {
		Token string `json:"token"`
	}
	if len(c.Body()) > 0 && c.BodyParser(&in) == nil {
		return strings.TrimSpace(in.Token)
	}
	return ""
}

func redirectURL(ssoURL, token string) string {
	sep := "?"
	if strings.Contains(ssoURL, "?") {
		sep = "&"
	}
	return ssoURL + sep + "token=" + url.QueryEscape(token)
}
