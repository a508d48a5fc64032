// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	BuildsProcessed        = expvar.NewInt("builds_processed")
	NotificationsTriggered = expvar.NewInt("notifications_triggered")
	NotificationsSkipped   = expvar.NewInt("notifications_skipped")
	NotificationsSucceeded = expvar.NewInt("notifications_succeeded")
	NotificationsFailed    = expvar.NewInt("notifications_failed")
	LoginFailures          = expvar.NewInt("login_failures")
	SchedulingFailures     = expvar.NewInt("scheduling_failures")
	DeferredSignalsApplied = expvar.NewInt("deferred_signals_applied")
	AlertsDispatched       = expvar.NewInt("alerts_dispatched")
	AlertsFailed           = expvar.NewInt("alerts_failed")
)
