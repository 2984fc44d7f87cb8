// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "actxion_auth"

// Result labels
const (
	ResultOK                = "ok"
	ResultNoChallenge       = "no_challenge"
	ResultExpired           = "expired"
	ResultSignatureMismatch = "signature_mismatch"
	ResultInvalidAddress    = "invalid_address"
	ResultInvalid           = "invalid"
	ResultUnavailable       = "unavailable"
	ResultError             = "error"
)

var (
	ChallengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_issued_total",
		Help:      "Challenges handed out for wallet signing",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_verifications_total",
		Help:      "Wallet signature verifications by result",
	}, []string{"result"})

	CredentialLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_logins_total",
		Help:      "Email and password authorizations by result",
	}, []string{"result"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Account registrations by result",
	}, []string{"result"})

	WalletBindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_bindings_total",
		Help:      "Wallet connect and disconnect operations by action and result",
	}, []string{"action", "result"})

	SessionsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_issued_total",
		Help:      "Session token pairs issued by login method",
	}, []string{"method"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
)
