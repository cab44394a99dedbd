package main

import (
	"strings"
)

func makeExample(examples ...string) string {
	var buf strings.Builder
	for _, ex := range examples {
		buf.WriteString("  ")
		buf.WriteString(ex)
		buf.WriteString("\n")
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
