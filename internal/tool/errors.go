package tool

import (
	"fmt"

	"github.com/hal9000y/gmail-reader/internal/gservice"
)

// toolError wraps err for the MCP client, adding a hint when the user has to
// act.
func toolError(op string, err error) error {
	switch gservice.KindOf(err) {
	case gservice.KindAuthentication:
		return fmt.Errorf("%s failed: %w; run `gmail-reader auth` to re-authenticate", op, err)
	case gservice.KindRateLimitExhausted:
		return fmt.Errorf("%s failed: %w; Gmail quota is exhausted, try again later", op, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
