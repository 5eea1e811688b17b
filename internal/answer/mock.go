package answer

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter gives deterministic local answers when no provider key is set.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Generate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	q := strings.TrimSpace(req.Question)
	if q == "" {
		return "I'm not sure.", nil
	}
	return fmt.Sprintf("Here is a simple answer to: %s", q), nil
}
