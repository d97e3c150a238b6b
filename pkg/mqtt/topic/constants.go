package topic

// Wildcard is the MQTT single-level wildcard. It matches exactly one topic level.
const Wildcard = "+"
