package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/application/sso"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository/mocks"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/identity"
	apphttp "github.com/jhoicas/saas-dashboard/internal/interfaces/http"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

type fakeTokens struct {
	issued   []sso.IssueRequest
	apps     []string
	validate sso.ValidationResult
	info     *sso.TokenInfo
	infoErr  error
}

func (f *fakeTokens) Issue(_ context.Context, req sso.IssueRequest) (*sso.GeneratedToken, error) {
	f.issued = append(f.issued, req)
	return &sso.GeneratedToken{Token: "tok.en.x", ExpiresAt: 1700000300000, TargetApp: req.TargetApp, Nonce: "n-1"}, nil
}

func (f *fakeTokens) ValidateForApp(_ context.Context, _, appSlug string) sso.ValidationResult {
	f.apps = append(f.apps, appSlug)
	return f.validate
}

func (f *fakeTokens) GetTokenInfo(_ context.Context, _ string) (*sso.TokenInfo, error) {
	return f.info, f.infoErr
}

func buildSSOApp(tokens *fakeTokens, apps *mocks.AppRepository) *fiber.App {
	h := apphttp.NewSSOHandler(tokens, apps)
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(logger.Nop())})
	app.Post("/api/sso/validate", h.Validate)
	app.Get("/api/sso/token-info", h.TokenInfo)
	app.Post("/api/sso/generate",
		apphttp.AuthMiddleware(identity.NewSessionVerifier(testJWTSecret), &fakeUserSync{}, logger.Nop()),
		h.Generate,
	)
	return app
}

func TestSSOHandler_Generate_ConstruyeRedirectURL(t *testing.T) {
	tokens := &fakeTokens{}
	apps := new(mocks.AppRepository)
	apps.On("GetActiveBySlug", mock.Anything, "crm").
		Return(&entity.App{ID: "a1", Slug: "crm", SSOURL: "https://crm.example.com/sso?lang=es"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sso/generate", strings.NewReader(`{"appSlug":"crm"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, "user"))
	req.Header.Set("User-Agent", "test-agent")
	resp, err := buildSSOApp(tokens, apps).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.GenerateTokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "tok.en.x", body.Token)
	assert.Equal(t, "crm", body.TargetApp)
	assert.Equal(t, "https://crm.example.com/sso?lang=es&token=tok.en.x", body.RedirectURL)

	require.Len(t, tokens.issued, 1)
	assert.Equal(t, testUserID, tokens.issued[0].UserID)
	assert.Equal(t, testEmail, tokens.issued[0].Email)
	assert.Equal(t, "test-agent", tokens.issued[0].UserAgent)
	apps.AssertExpectations(t)
}

func TestSSOHandler_Generate_AppInexistente_Retorna404(t *testing.T) {
	apps := new(mocks.AppRepository)
	apps.On("GetActiveBySlug", mock.Anything, "nope").Return(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sso/generate", strings.NewReader(`{"appSlug":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, "user"))
	resp, err := buildSSOApp(&fakeTokens{}, apps).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSSOHandler_Generate_SinAppSlug_Retorna400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/sso/generate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, "user"))
	resp, err := buildSSOApp(&fakeTokens{}, new(mocks.AppRepository)).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSSOHandler_Validate(t *testing.T) {
	cases := []struct {
		name       string
		auth       string
		result     sso.ValidationResult
		wantStatus int
		wantValid  bool
		wantError  string
	}{
		{
			name:       "sin token",
			wantStatus: http.StatusBadRequest,
			wantError:  "Token is required",
		},
		{
			name:       "válido",
			auth:       "Bearer abc",
			result:     sso.ValidationResult{Valid: true, Payload: &sso.Payload{UserID: "u1", TargetApp: "crm", Permissions: []string{}}},
			wantStatus: http.StatusOK,
			wantValid:  true,
		},
		{
			name:       "ya usado",
			auth:       "Bearer abc",
			result:     sso.ValidationResult{Error: sso.ErrTokenUsed.Error(), Err: sso.ErrTokenUsed},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token has already been used",
		},
		{
			name:       "fallo interno",
			auth:       "Bearer abc",
			result:     sso.ValidationResult{Error: "Token validation failed", Err: errors.New("db caída")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Token validation failed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := buildSSOApp(&fakeTokens{validate: tc.result}, new(mocks.AppRepository))
			req := httptest.NewRequest(http.MethodPost, "/api/sso/validate", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			var body dto.ValidateTokenResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantValid, body.Valid)
			assert.Equal(t, tc.wantError, body.Error)
			if tc.wantValid {
				require.NotNil(t, body.Payload)
				assert.Equal(t, "u1", body.Payload.UserID)
			}
		})
	}
}

func TestSSOHandler_Validate_TokenEnBody(t *testing.T) {
	tokens := &fakeTokens{validate: sso.ValidationResult{Valid: true, Payload: &sso.Payload{UserID: "u1"}}}
	req := httptest.NewRequest(http.MethodPost, "/api/sso/validate", strings.NewReader(`{"token":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := buildSSOApp(tokens, new(mocks.AppRepository)).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// asApp simula AppKeyMiddleware: la app ya se autenticó con su API key.
func asApp(slug string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(apphttp.LocalAppSlug, slug)
		return c.Next()
	}
}

func TestSSOHandler_Validate_PasaLaAppAutenticada(t *testing.T) {
	tokens := &fakeTokens{validate: sso.ValidationResult{Valid: true, Payload: &sso.Payload{UserID: "u1", TargetApp: "crm"}}}
	app := fiber.New()
	app.Post("/api/sso/validate", asApp("crm"), apphttp.NewSSOHandler(tokens, new(mocks.AppRepository)).Validate)

	req := httptest.NewRequest(http.MethodPost, "/api/sso/validate", nil)
	req.Header.Set("Authorization", "Bearer abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"crm"}, tokens.apps)
}

// Un token emitido para otra app se rechaza con 401 y sigue sin consumir.
func TestSSOHandler_Validate_TokenDeOtraApp_Retorna401(t *testing.T) {
	store := new(mocks.SSOTokenRepository)
	svc := sso.NewService(store, sso.Options{Secret: "sso-test-secret"}, logger.Nop())
	gen, err := svc.Generate(sso.GenerateRequest{UserID: "u1", Email: "ana@example.com", TargetApp: "crm"})
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/api/sso/validate", asApp("billing"), apphttp.NewSSOHandler(svc, new(mocks.AppRepository)).Validate)

	req := httptest.NewRequest(http.MethodPost, "/api/sso/validate", nil)
	req.Header.Set("Authorization", "Bearer "+gen.Token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body dto.ValidateTokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Valid)
	assert.Equal(t, "Token was not issued for this app", body.Error)
	store.AssertNotCalled(t, "ConsumeUnused", mock.Anything, mock.Anything, mock.Anything)
}

func TestSSOHandler_TokenInfo(t *testing.T) {
	used := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tokens := &fakeTokens{info: &sso.TokenInfo{
		Payload:   &sso.Payload{UserID: "u1", TargetApp: "crm"},
		Used:      true,
		UsedAt:    &used,
		ExpiresAt: used.Add(time.Minute),
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/sso/token-info?token=abc", nil)
	resp, err := buildSSOApp(tokens, new(mocks.AppRepository)).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.TokenInfoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Used)
	require.NotNil(t, body.UsedAt)
	assert.True(t, used.Equal(*body.UsedAt))
	assert.Equal(t, "crm", body.Payload.TargetApp)
}

func TestSSOHandler_TokenInfo_Invalido_Retorna401(t *testing.T) {
	tokens := &fakeTokens{infoErr: sso.ErrInvalidToken}
	req := httptest.NewRequest(http.MethodGet, "/api/sso/token-info?token=abc", nil)
	resp, err := buildSSOApp(tokens, new(mocks.AppRepository)).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_TOKEN", body.Code)
	assert.Equal(t, "Invalid or expired token", body.Message)
}
