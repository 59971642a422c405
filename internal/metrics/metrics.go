// Package metrics exposes prometheus collectors for settlement events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

const namespace = "billsnap"

// Recorder is what the services report to. A nil *Metrics is a valid
// Recorder that drops everything.
type Recorder interface {
	BillCreated(method models.SplitMethod)
	BillTransitioned(from, to models.BillStatus)
	InvitationAnswered(status models.InvitationStatus)
	PaymentRecorded(amount float64)
	OperationFailed(operation string, err error)
}

// Metrics holds the collectors. Build it with New.
type Metrics struct {
	billsCreated      *prometheus.CounterVec
	billTransitions   *prometheus.CounterVec
	invitationAnswers *prometheus.CounterVec
	payments          prometheus.Counter
	paymentAmount     prometheus.Histogram
	operationFailures *prometheus.CounterVec
}

var _ Recorder = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		billsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Bills created, by split method.",
		}, []string{"split_method"}),
		billTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_transitions_total",
			Help:      "Bill status transitions.",
		}, []string{"from", "to"}),
		invitationAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitation_answers_total",
			Help:      "Answered invitations, by resulting status.",
		}, []string{"status"}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Accepted payments.",
		}),
		paymentAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_amount",
			Help:      "Amount of accepted payments.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed service operations, by operation and error code.",
		}, []string{"operation", "kind", "code"}),
	}

	reg.MustRegister(
		m.billsCreated,
		m.billTransitions,
		m.invitationAnswers,
		m.payments,
		m.paymentAmount,
		m.operationFailures,
	)
	return m
}

func (m *Metrics) BillCreated(method models.SplitMethod) {
	if m == nil {
		return
	}
	m.billsCreated.WithLabelValues(string(method)).Inc()
}

func (m *Metrics) BillTransitioned(from, to models.BillStatus) {
	if m == nil || from == to {
		return
	}
	m.billTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) InvitationAnswered(status models.InvitationStatus) {
	if m == nil {
		return
	}
	m.invitationAnswers.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) PaymentRecorded(amount float64) {
	if m == nil {
		return
	}
	m.payments.Inc()
	m.paymentAmount.Observe(amount)
}

// OperationFailed counts err under its apperr kind and code.
func (m *Metrics) OperationFailed(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.operationFailures.WithLabelValues(operation, apperr.KindOf(err).String(), apperr.Code(err)).Inc()
}
