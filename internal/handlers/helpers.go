package handlers

import "strconv"

const maxPageSize = 100

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func clampPageSize(size, fallback int) int {
	if size < 1 {
		return fallback
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
