// Package mqtt wraps the paho client with the bridge's connection
// defaults: auto-reconnect, subscription replay and a retained
// availability topic used as the Last Will.
package mqtt
