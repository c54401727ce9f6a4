package crypto

// Zero overwrites a byte slice in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
