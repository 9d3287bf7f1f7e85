package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
)

const (
	maxUsernameBase      = 15
	maxUsernameSuffix    = 1000
	fallbackUsernameBase = "user"
)

// UsernameChecker checks whether a username is taken.
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// AllocateUsername derives a free username from a display name: lowercase,
// keep only a-z and 0-9, cut to 15 characters, then try base, base1,
// base2 and so on until one is free.
//
// The check is advisory. Two concurrent callers can be handed the same name;
// the unique index on users.username decides which insert wins.
func AllocateUsername(ctx context.Context, names UsernameChecker, displayName string) (string, error) {
	base := usernameBase(displayName)

	for i := 0; i <= maxUsernameSuffix; i++ {
		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}

		taken, err := names.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		metrics.RecordUsernameCollision()
	}

	return "", fmt.Errorf("no free username for %q after %d attempts", base, maxUsernameSuffix)
}

func usernameBase(displayName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == maxUsernameBase {
			break
		}
	}
	if b.Len() == 0 {
		return fallbackUsernameBase
	}
	return b.String()
}
