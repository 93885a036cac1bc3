package domain

import "github.com/samber/lo"

// Visible reports whether m belongs in user's message listing. The clauses are
// a union; a message matching several of them is still listed once.
func Visible(m Message, user string) bool {
	return m.Type == TypeMessage ||
		m.From == Broadcast ||
		m.To == user ||
		m.To == Broadcast ||
		m.From == user
}

// FilterVisible keeps the messages visible to user, preserving order.
func FilterVisible(msgs []Message, user string) []Message {
	return lo.Filter(msgs, func(m Message, _ int) bool {
		return Visible(m, user)
	})
}

// Tail returns the last n elements of items in their original order. A
// non-positive n returns items unchanged; callers validate limits beforehand.
func Tail[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return lo.Subset(items, -n, uint(n))
}
