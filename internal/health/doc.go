// Package health keeps an eye on the bridge from the outside: a cron-driven
// probe of the chain endpoint and systemd readiness/watchdog notifications.
package health
