package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const codeAttempts = 10

// newCode – APR-YYYYMMDD-HHMMSS-XXXXXX, unique among stored requests
func (s *Service) newCode(ctx context.Context, at time.Time) (string, error) {
	for range codeAttempts {
		code := formatCode(at, randomSuffix())
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique request code after %d attempts", codeAttempts)
}

func formatCode(at time.Time, suffix string) string {
	return "APR-" + at.UTC().Format("20060102-150405") + "-" + suffix
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
