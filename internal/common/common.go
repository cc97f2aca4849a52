package common

// Strings converts a slice of string backed values, e.g. error codes or rule keys
func Strings[T ~string](slice []T) []string {
	result := make([]string, len(slice))
	for i, val := range slice {
		result[i] = string(val)
	}

	return result
}
