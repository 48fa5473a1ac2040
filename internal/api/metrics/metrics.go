// Package metrics declares the console's Prometheus metrics. They register
// with the default registry on import and are served by /metrics together
// with the echoprometheus request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// GateDecisionsTotal counts navigations by outcome.
// Labels:
//   - route: the route pattern (e.g. "/gatos/:id")
//   - outcome: "allow", "redirect_login", "redirect_forbidden" or "terms_blocked"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Navigations evaluated by the authorization gate, by outcome.",
	},
	[]string{"route", "outcome"},
)

// LoginsTotal counts sign-in attempts.
// Label:
//   - result: "success", "terms_pending", or a login rejection reason
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Sign-in attempts, by result.",
	},
	[]string{"result"},
)

// TermsAcceptTotal counts demo-terms acceptance attempts.
// Label:
//   - result: "accepted", "failed" or "stale"
var TermsAcceptTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "terms_accept_total",
		Help:      "Demo terms acceptance attempts, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts explicit sign-outs.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Explicit sign-outs.",
	},
)

// ActiveShells tracks how many browser scopes have a live shell.
var ActiveShells = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_shells",
		Help:      "Browser scopes with a live shell in this process.",
	},
)
