package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(emailsSentTotal) }

var emailsSentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Reflection emails attempted, labeled by outcome.",
	},
	[]string{"success"},
)

func IncEmailSent(success bool) {
	emailsSentTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}
