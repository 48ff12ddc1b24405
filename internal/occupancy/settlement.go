package occupancy

const msPerHour int64 = 3600000

// IsSettled reports whether a guest present for durationMs has passed the
// settlement threshold. Equality does not count.
func IsSettled(durationMs int64, thresholdHours int) bool {
	return durationMs > int64(thresholdHours)*msPerHour
}

// reachedGate reports whether active/capacity >= 0.95, computed on integers.
func reachedGate(active int64, capacity int) bool {
	if capacity <= 0 {
		return active > 0
	}
	return active*100 >= int64(capacity)*95
}
