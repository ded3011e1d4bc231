package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of order write calls committed",
	})

	OrderLinesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_lines_created_total",
		Help: "Total number of order lines persisted",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order write calls",
	}, []string{"reason"})

	ProductsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "products_resolved_total",
		Help: "Catalog resolutions by outcome (hit or created)",
	}, []string{"outcome"})

	BatchesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_batches_deleted_total",
		Help: "Total number of batches cascade-deleted",
	})

	BatchStatusAdvancedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_batch_status_advanced_total",
		Help: "Batch status advancements by target status",
	}, []string{"status"})

	InvoiceRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoice_requests_total",
		Help: "Total number of invoice creation requests sent upstream",
	})

	InvoiceRequestsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_requests_failed_total",
		Help: "Total number of failed invoice creation requests",
	}, []string{"reason"})

	InvoicesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_deleted_total",
		Help: "Total number of invoices deleted upstream",
	})

	InvoiceVisibilityPollAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "invoice_visibility_poll_attempts",
		Help:    "Attempts spent waiting for a fresh batch to become visible",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 10},
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
