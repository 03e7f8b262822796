package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	authclient "github.com/kynetiq/authclient"
)

type metricsSource interface {
	MetricsSnapshot() authclient.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders authclient lifecycle counters in Prometheus text
// exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter that reads from the given
// [authclient.Controller].
func NewExporter(controller *authclient.Controller) *Exporter {
	return &Exporter{source: controller}
}

// NewExporterFromSource creates an exporter from a custom source,
// typically a test double.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler that serves the current counters.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes the current counters in Prometheus text exposition format.
// Counter names are prefixed authclient_*_total.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()

	var b strings.Builder
	b.Grow(4096)

	for _, id := range authclient.MetricIDs() {
		writeCounter(&b, "authclient_"+id.Name()+"_total", id.Help(), snapshot.Counters[id])
	}

	writeCounter(&b, "authclient_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
