package capture

import "strings"

const (
	minContainerWidth  = 120.0
	minContainerHeight = 16.0
)

// IsCaptionContainer filters out nodes that cannot plausibly hold captions:
// invisible, too small, or covering most of the screen.
func IsCaptionContainer(n Node, vp Viewport) bool {
	if !n.Visible || !n.Connected {
		return false
	}
	if n.Rect.Width < minContainerWidth || n.Rect.Height < minContainerHeight {
		return false
	}
	if n.Rect.Height > vp.Height*0.7 {
		return false
	}
	return true
}

// ScoreCandidate ranks a fallback candidate. Live-region semantics and a
// caption-like position low in the viewport dominate the score.
func ScoreCandidate(n Node, vp Viewport) int {
	score := 0
	switch strings.ToLower(n.AriaLive) {
	case "polite", "assertive":
		score += 2
	}
	if strings.EqualFold(n.Role, "log") {
		score++
	}
	if n.Rect.Top > vp.Height*0.4 {
		score += 2
	}
	if n.Rect.Height < vp.Height*0.6 {
		score++
	}
	if l := len(NormalizeLine(n.Text)); l >= 4 && l <= 200 {
		score++
	}
	return score
}

// SelectContainer picks the caption container from a snapshot: first the
// prioritized live-region patterns in order, then the highest-scoring valid
// fallback. Ties keep the earlier node.
func SelectContainer(snap Snapshot) (Node, bool) {
	priority := []func(Node) bool{
		func(n Node) bool { return strings.EqualFold(n.AriaLive, "polite") },
		func(n Node) bool { return strings.EqualFold(n.AriaLive, "assertive") },
		func(n Node) bool { return strings.EqualFold(n.Role, "log") },
	}
	for _, match := range priority {
		for _, n := range snap.Nodes {
			if match(n) && IsCaptionContainer(n, snap.Viewport) {
				return n, true
			}
		}
	}

	best := Node{}
	bestScore := -1
	for _, n := range snap.Nodes {
		if !IsCaptionContainer(n, snap.Viewport) {
			continue
		}
		if score := ScoreCandidate(n, snap.Viewport); score > bestScore {
			best = n
			bestScore = score
		}
	}
	return best, bestScore >= 0
}
