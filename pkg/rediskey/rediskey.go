package rediskey

import "fmt"

// Sequence keys (global convention across services)
const (
	SequencePrefix = "seq"

	OrderSequence    = "ORD"
	DonationSequence = "DON"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildDailySequenceKey returns "seq:{prefix}:{yymmdd}", the counter behind
// the human-readable order and donation codes. One key per prefix per UTC
// day; the sequence generator expires it at midnight.
func BuildDailySequenceKey(prefix, day string) string {
	return NamespaceKey(SequencePrefix, NamespaceKey(prefix, day))
}
