// Package bridge runs the daemon that mirrors the vendor alarm into
// Home Assistant over MQTT discovery and executes panel commands
// received on the command topic.
package bridge
