package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics счётчики и гистограммы бота записи
type Metrics struct {
	inboundTotal     *prometheus.CounterVec
	outboundTotal    *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	bookingsTotal    *prometheus.CounterVec
	handlerFailures  *prometheus.CounterVec
	sweptStatesTotal prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "inbound_total",
			Help:      "Inbound messages by classification",
		}, []string{"kind"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Outbound sends by status",
		}, []string{"status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "dialog",
			Name:      "dispatch_seconds",
			Help:      "Time spent handling one inbound message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "booking",
			Name:      "commits_total",
			Help:      "Booking attempts by result",
		}, []string{"result"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "dialog",
			Name:      "handler_failures_total",
			Help:      "Unexpected handler failures that reset the conversation",
		}, []string{"step"}),
		sweptStatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "dialog",
			Name:      "expired_states_total",
			Help:      "Idle conversations dropped by the sweeper",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.dispatchLatency, m.bookingsTotal, m.handlerFailures, m.sweptStatesTotal)
	return m
}

func (m *Metrics) ObserveInbound(kind string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveOutbound(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveDispatch(step string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(step).Observe(seconds)
}

// ObserveBooking учитывает "booked", "slot_taken", "invalid" или "error"
func (m *Metrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHandlerFailure(step string) {
	if m == nil {
		return
	}
	m.handlerFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) ObserveSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptStatesTotal.Add(float64(n))
}
