package payments

import (
	"fmt"
	"time"
)

const (
	orderIDPrefix      = "ORDER_"
	orderIDOwnerChars  = 8
	maxOrderIDAttempts = 3
)

// NewGatewayOrderID renders ORDER_<epoch millis>_<first 8 chars of userID>.
// The value doubles as the gateway merchant transaction id.
func NewGatewayOrderID(at time.Time, userID string) string {
	owner := userID
	if len(owner) > orderIDOwnerChars {
		owner = owner[:orderIDOwnerChars]
	}
	return fmt.Sprintf("%s%d_%s", orderIDPrefix, at.UnixMilli(), owner)
}
