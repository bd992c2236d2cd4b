// Package infra holds the adapters behind the core interfaces: registry
// stores, the exposure database, metrics sinks, the MQTT plan publisher,
// Sentry monitoring and zerolog logging.
package infra
