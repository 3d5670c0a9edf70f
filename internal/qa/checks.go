package qa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	classPattern     = regexp.MustCompile(`(?m)^\s*class\s+\w+\s*\([^)]*Scene[^)]*\)\s*:`)
	constructPattern = regexp.MustCompile(`def\s+construct\s*\(\s*self`)

	// coordPattern matches the leading x, y of a numeric array literal.
	// The frame is estimated statically, so any placement-style array
	// counts as a position.
	coordPattern = regexp.MustCompile(`\[\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*[,\]]`)

	// textPlacementPattern captures a Text literal positioned in the same
	// statement, used for the overlap estimate.
	textPlacementPattern = regexp.MustCompile(`Text\(\s*["']([^"']*)["'][^)]*\)\s*(?:\.\w+\([^)]*\)\s*)*?\.move_to\(\s*\[\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)`)
)

// checkStructure verifies the code declares a Scene subclass with a
// construct method.
func checkStructure(code string) []string {
	var violations []string
	if !classPattern.MatchString(code) {
		violations = append(violations, "code must declare a class deriving from Scene")
	}
	if !constructPattern.MatchString(code) {
		violations = append(violations, "scene class must define a construct(self) method")
	}
	return violations
}

// checkBounds verifies every positioned coordinate stays inside the frame.
func checkBounds(code string, boundX, boundY float64) []string {
	var violations []string
	for _, match := range coordPattern.FindAllStringSubmatch(code, -1) {
		x, errX := strconv.ParseFloat(match[1], 64)
		y, errY := strconv.ParseFloat(match[2], 64)
		if errX != nil || errY != nil {
			continue
		}
		if x < -boundX || x > boundX {
			violations = append(violations, fmt.Sprintf(
				"x coordinate %.2f is outside the visible frame [%.1f, %.1f]", x, -boundX, boundX))
		}
		if y < -boundY || y > boundY {
			violations = append(violations, fmt.Sprintf(
				"y coordinate %.2f is outside the visible frame [%.1f, %.1f]", y, -boundY, boundY))
		}
	}
	return violations
}

// textRegion is the estimated bounding box of one placed text element.
type textRegion struct {
	text          string
	x, y          float64
	width, height float64
}

const (
	estimatedCharWidth  = 0.15
	estimatedTextHeight = 0.8
)

func extractTextRegions(code string) []textRegion {
	var regions []textRegion
	for _, match := range textPlacementPattern.FindAllStringSubmatch(code, -1) {
		x, errX := strconv.ParseFloat(match[2], 64)
		y, errY := strconv.ParseFloat(match[3], 64)
		if errX != nil || errY != nil {
			continue
		}
		text := match[1]
		regions = append(regions, textRegion{
			text:   text,
			x:      x,
			y:      y,
			width:  float64(len(text)) * estimatedCharWidth,
			height: estimatedTextHeight,
		})
	}
	return regions
}

// overlapFraction returns the intersection area of two regions relative to
// the smaller region.
func overlapFraction(a, b textRegion) float64 {
	overlapX := minFloat(a.x+a.width/2, b.x+b.width/2) - maxFloat(a.x-a.width/2, b.x-b.width/2)
	overlapY := minFloat(a.y+a.height/2, b.y+b.height/2) - maxFloat(a.y-a.height/2, b.y-b.height/2)
	if overlapX <= 0 || overlapY <= 0 {
		return 0
	}
	smaller := minFloat(a.width*a.height, b.width*b.height)
	if smaller <= 0 {
		return 0
	}
	return (overlapX * overlapY) / smaller
}

// checkOverlap flags text element pairs whose estimated boxes overlap
// beyond the threshold.
func checkOverlap(code string, threshold float64) []string {
	regions := extractTextRegions(code)
	var violations []string
	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			fraction := overlapFraction(regions[i], regions[j])
			if fraction > threshold {
				violations = append(violations, fmt.Sprintf(
					"text %q and %q overlap by %.0f%%; separate their positions",
					truncateText(regions[i].text), truncateText(regions[j].text), fraction*100))
			}
		}
	}
	return violations
}

// clampCoordinates rewrites out-of-frame coordinate literals to the nearest
// bound. Only the bounds violations are fixable this way; structure and
// overlap defects pass through.
func clampCoordinates(code string, boundX, boundY float64) string {
	matches := coordPattern.FindAllStringSubmatchIndex(code, -1)
	if len(matches) == 0 {
		return code
	}
	// Splice each coordinate by its submatch position so rewriting one
	// literal can never touch another whose digits happen to repeat.
	var rebuilt strings.Builder
	last := 0
	for _, match := range matches {
		xStart, xEnd := match[2], match[3]
		yStart, yEnd := match[4], match[5]
		x, errX := strconv.ParseFloat(code[xStart:xEnd], 64)
		y, errY := strconv.ParseFloat(code[yStart:yEnd], 64)
		if errX != nil || errY != nil {
			continue
		}
		clampedX := clampFloat(x, -boundX, boundX)
		clampedY := clampFloat(y, -boundY, boundY)
		if clampedX == x && clampedY == y {
			continue
		}
		rebuilt.WriteString(code[last:xStart])
		rebuilt.WriteString(formatCoordinate(clampedX))
		rebuilt.WriteString(code[xEnd:yStart])
		rebuilt.WriteString(formatCoordinate(clampedY))
		last = yEnd
	}
	rebuilt.WriteString(code[last:])
	return rebuilt.String()
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func truncateText(text string) string {
	if len(text) > 24 {
		return text[:24] + "..."
	}
	return text
}
