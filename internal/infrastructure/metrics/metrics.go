package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions cuenta decisiones de acceso a apps por motivo.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "access_decisions_total",
		Help:      "Decisiones de acceso a apps por motivo.",
	}, []string{"reason"})

	// SSOTokensIssued cuenta tokens SSO emitidos por app destino.
	SSOTokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "sso_tokens_issued_total",
		Help:      "Tokens SSO emitidos por app destino.",
	}, []string{"app"})

	// SSOValidations cuenta validaciones de tokens SSO por resultado.
	SSOValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "sso_validations_total",
		Help:      "Validaciones de tokens SSO por resultado.",
	}, []string{"result"})

	// SSOTokensSwept cuenta tokens vencidos purgados por el barrido.
	SSOTokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "sso_tokens_swept_total",
		Help:      "Tokens SSO vencidos eliminados por el barrido periódico.",
	})

	// SubscriptionOperations cuenta operaciones de suscripción por tipo y resultado.
	SubscriptionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "subscription_operations_total",
		Help:      "Operaciones de suscripción por tipo y resultado.",
	}, []string{"operation", "result"})

	// ProvisioningTotal cuenta intentos de aprovisionamiento ERPNext por desenlace.
	ProvisioningTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "provisioning_total",
		Help:      "Intentos de aprovisionamiento ERPNext por desenlace.",
	}, []string{"outcome"})

	// HTTPRequestDuration latencia de peticiones HTTP por ruta y código.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "http_request_duration_seconds",
		Help:      "Latencia de peticiones HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Result etiqueta estándar de éxito/fallo.
func Result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
