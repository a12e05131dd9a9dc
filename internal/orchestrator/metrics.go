// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// metrics holds the Manager's prometheus counters, registered against a
// private registry so multiple Managers in one process (tests) never
// collide on the default global registry, plus an OpenTelemetry duration
// histogram recorded against a private in-process MeterProvider. The two
// are deliberately redundant: prometheus.Registry is what callers scrape
// directly (see Registry() below), the OTel histogram is what a caller's
// own OTel pipeline (traces + metrics together) picks up if one is wired
// in further up the stack.
type metrics struct {
	registry  *prometheus.Registry
	spawned   *prometheus.CounterVec
	succeeded *prometheus.CounterVec
	failed    *prometheus.CounterVec
	cancelled *prometheus.CounterVec

	meterProvider *sdkmetric.MeterProvider
	runDuration   otelmetric.Float64Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		spawned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeweave_agent_spawned_total",
			Help: "Total number of agent spawns by agent name.",
		}, []string{"agent"}),
		succeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeweave_agent_succeeded_total",
			Help: "Total number of successful agent runs by agent name.",
		}, []string{"agent"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeweave_agent_failed_total",
			Help: "Total number of failed agent runs by agent name.",
		}, []string{"agent"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeweave_agent_cancelled_total",
			Help: "Total number of cancelled agent runs by agent name.",
		}, []string{"agent"}),
	}
	reg.MustRegister(m.spawned, m.succeeded, m.failed, m.cancelled)

	m.meterProvider = sdkmetric.NewMeterProvider()
	meter := m.meterProvider.Meter("github.com/teradata-labs/codeweave/internal/orchestrator")
	hist, err := meter.Float64Histogram(
		"codeweave.agent.run_duration",
		otelmetric.WithDescription("Agent run duration in seconds."),
		otelmetric.WithUnit("s"),
	)
	if err != nil {
		// only a malformed instrument name/unit can fail here, and both
		// are constants above
		panic(err)
	}
	m.runDuration = hist
	return m
}

// recordDuration records one agent run's wall-clock duration against the
// OTel histogram, tagged with its outcome.
func (m *metrics) recordDuration(ctx context.Context, agent, outcome string, seconds float64) {
	m.runDuration.Record(ctx, seconds, otelmetric.WithAttributes(
		attribute.String("agent", agent),
		attribute.String("outcome", outcome),
	))
}

// Registry exposes the Manager's private prometheus registry so callers
// can serve it (e.g. via promhttp.HandlerFor) alongside their own.
func (m *Manager) Registry() *prometheus.Registry {
	return m.metrics.registry
}

// MeterProvider exposes the Manager's private OTel MeterProvider so
// callers can attach their own reader/exporter.
func (m *Manager) MeterProvider() *sdkmetric.MeterProvider {
	return m.metrics.meterProvider
}
