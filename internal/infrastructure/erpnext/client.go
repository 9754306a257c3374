// Package erpnext adaptador HTTP hacia el backend que crea las instancias ERPNext de los clientes.
package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/pkg/config"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

var _ ports.SiteProvisioner = (*Client)(nil)

const (
	pathCreate = "/api/method/create_customer_site"
	pathCheck  = "/api/method/check_site_exists"
	pathDelete = "/api/method/delete_customer_site"

	maxResponseBytes = 64 * 1024
)

// ErrRejected el backend respondió success=false.
var ErrRejected = errors.New("erpnext: operación rechazada")

// Client implementa SiteProvisioner sobre la API de métodos de Frappe.
// Cada operación impone su propio context.WithTimeout; la creación remota tarda minutos.
type Client struct {
	baseURL       string
	apiKey        string
	apiSecret     string
	createTimeout time.Duration
	checkTimeout  time.Duration
	deleteTimeout time.Duration
	httpClient    *http.Client
	log           *logger.Logger
}

// NewClient construye el adaptador desde la configuración.
func NewClient(cfg config.ERPNextConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		apiSecret:     cfg.APISecret,
		createTimeout: orDefault(cfg.CreateTimeout, 5*time.Minute),
		checkTimeout:  orDefault(cfg.CheckTimeout, 15*time.Second),
		deleteTimeout: orDefault(cfg.DeleteTimeout, time.Minute),
		httpClient:    &http.Client{},
		log:           log.Component("erpnext"),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// ── Estructuras del protocolo ────────────────────────────────────────────────

type createRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type envelope struct {
	Success bool            `json:"success"`
	Exists  bool            `json:"exists"`
	Error   string          `json:"error"`
	Message json.RawMessage `json:"message"`
	Data    struct {
		SiteURL string `json:"site_url"`
	} `json:"data"`
}

// ── Implementación del puerto ────────────────────────────────────────────────

// CreateCustomerSite crea la instancia remota.
func (c *Client) CreateCustomerSite(ctx context.Context, username, email, password string) (*ports.ProvisionedSite, error) {
	ctx, cancel := context.WithTimeout(ctx, c.createTimeout)
	defer cancel()

	env, err := c.call(ctx, http.MethodPost, pathCreate, createRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("create_customer_site: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("create_customer_site: %w: %s", ErrRejected, env.reason())
	}
	return &ports.ProvisionedSite{SiteURL: env.Data.SiteURL}, nil
}

// CheckSiteExists consulta si el sitio ya está disponible.
func (c *Client) CheckSiteExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	path := pathCheck + "?" + url.Values{"username": {username}}.Encode()
	env, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, fmt.Errorf("check_site_exists: %w", err)
	}
	if !env.Success {
		return false, fmt.Errorf("check_site_exists: %w: %s", ErrRejected, env.reason())
	}
	return env.Exists, nil
}

// DeleteCustomerSite elimina la instancia remota.
func (c *Client) DeleteCustomerSite(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, c.deleteTimeout)
	defer cancel()

	env, err := c.call(ctx, http.MethodPost, pathDelete, usernameRequest{Username: username})
	if err != nil {
		return fmt.Errorf("delete_customer_site: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("delete_customer_site: %w: %s", ErrRejected, env.reason())
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (c *Client) call(ctx context.Context, method, path string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" && c.apiSecret != "" {
		req.Header.Set("Authorization", "token "+c.apiKey+":"+c.apiSecret)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("leer respuesta: %w", err)
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("llamada ERPNext")

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decodificar respuesta: %w", err)
	}
	// Frappe envuelve la respuesta de los métodos whitelisted en {"message": {...}}.
	if msg := bytes.TrimSpace(env.Message); len(msg) > 0 && msg[0] == '{' {
		var inner envelope
		if err := json.Unmarshal(msg, &inner); err != nil {
			return nil, fmt.Errorf("decodificar respuesta: %w", err)
		}
		return &inner, nil
	}
	return &env, nil
}

func (e *envelope) reason() string {
	if e.Error != "" {
		return e.Error
	}
	var msg string
	if json.Unmarshal(e.Message, &msg) == nil && msg != "" {
		return msg
	}
	return "sin detalle"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
