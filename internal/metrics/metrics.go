package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Monitor loop metrics
	MonitorCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbalert_monitor_cycles_total",
		Help: "Total number of monitor cycles grouped by outcome",
	}, []string{"outcome"})
	MonitorMatchedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dbalert_monitor_matched_rows_total",
		Help: "Total number of rows that matched the alert condition",
	})
	MonitorConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dbalert_monitor_connected",
		Help: "1 while the monitor holds a live database connection",
	})
	DatabaseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbalert_database_errors_total",
		Help: "Total number of database errors grouped by stage",
	}, []string{"stage"})
	AlertsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dbalert_alerts_sent_total",
		Help: "Total number of alert emails handed to the SMTP server",
	})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbalert_mail_send_success_total",
		Help: "Total number of successfully sent mails",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbalert_mail_send_failure_total",
		Help: "Total number of failed mail sends grouped by reason",
	}, []string{"host", "reason"})

	// HTTP trigger metrics
	TriggerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbalert_trigger_requests_total",
		Help: "Total number of /send_email requests grouped by response category",
	}, []string{"category"})
)

func init() {
	prometheus.MustRegister(MonitorCycles)
	prometheus.MustRegister(MonitorMatchedRows)
	prometheus.MustRegister(MonitorConnected)
	prometheus.MustRegister(DatabaseErrors)
	prometheus.MustRegister(AlertsSent)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(TriggerRequests)
}

// Handler returns the prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
