package scheduler

import "math/rand/v2"

// Palette holds the display colors assigned to new tasks.
var Palette = []string{
	"#4F46E5",
	"#0EA5E9",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
	"#F97316",
	"#64748B",
}

// RandomColor picks a palette entry.
func RandomColor() string {
	return Palette[rand.IntN(len(Palette))]
}
