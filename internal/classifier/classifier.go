package classifier

import (
	"log/slog"
	"strings"

	"github.com/ajitpratap0/marquee/internal/models"
)

// Classifier determines the kind of a production from its revival label.
type Classifier interface {
	Classify(label string) models.ProductionKind
}

// HeuristicClassifier uses keyword-based rules for classification.
type HeuristicClassifier struct {
	logger *slog.Logger
}

// NewClassifier creates a new heuristic-based classifier.
func NewClassifier(logger *slog.Logger) *HeuristicClassifier {
	return &HeuristicClassifier{logger: logger}
}

// revivalPatterns match labels of remounted productions.
var revivalPatterns = []string{
	"revival", "revisal", "remount", "restaging", "re-staging",
	"2nd", "3rd", "4th", "second", "third", "fourth", "new production",
}

// returnPatterns match labels of productions brought back after a short gap.
var returnPatterns = []string{
	"return engagement", "returning", "return",
}

// originalPatterns match labels that explicitly mark the first production.
var originalPatterns = []string{
	"original", "premiere", "first production", "world premiere",
}

// Classify determines the production kind from a revival label. A blank
// label, or a plain truthy flag ("yes", "true", "x"), is handled first.
func (c *HeuristicClassifier) Classify(label string) models.ProductionKind {
	lower := strings.ToLower(strings.TrimSpace(label))

	switch lower {
	case "", "no", "false", "0", "n":
		return models.KindOriginal
	case "yes", "true", "1", "y", "x":
		return models.KindRevival
	}

	scores := map[models.ProductionKind]int{
		models.KindOriginal:         0,
		models.KindRevival:          0,
		models.KindReturnEngagement: 0,
	}

	for _, p := range revivalPatterns {
		if strings.Contains(lower, p) {
			scores[models.KindRevival]++
		}
	}

	for _, p := range returnPatterns {
		if strings.Contains(lower, p) {
			scores[models.KindReturnEngagement]++
		}
	}

	for _, p := range originalPatterns {
		if strings.Contains(lower, p) {
			scores[models.KindOriginal]++
		}
	}

	// Iterate in a fixed order so ties resolve the same way every run.
	bestKind := models.KindRevival
	bestScore := 0
	for _, pk := range []models.ProductionKind{models.KindRevival, models.KindReturnEngagement, models.KindOriginal} {
		if scores[pk] > bestScore {
			bestScore = scores[pk]
			bestKind = pk
		}
	}

	// An unrecognized non-blank label is still a label distinguishing the
	// run from the original production.
	if bestScore == 0 {
		bestKind = models.KindRevival
	}

	c.logger.Debug("classified revival label", "kind", bestKind, "score", bestScore, "label", truncate(label, 60))
	return bestKind
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
