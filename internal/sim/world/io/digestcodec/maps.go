package digestcodec

// WriteKeyedFloats emits key/value pairs in the order of keys. Callers pass a
// fixed key list (never map iteration order).
func WriteKeyedFloats(w Writer, tmp *[8]byte, keys []string, value func(string) float64) {
	WriteU64(w, tmp, uint64(len(keys)))
	for _, k := range keys {
		WriteString(w, tmp, k)
		WriteF64(w, tmp, value(k))
	}
}
