package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "3 rooms, great view", Text("3   rooms,\n\tgreat   view"))
}

func TestTextStripsDisallowedChars(t *testing.T) {
	t.Parallel()

	require.Equal(t, "nice flat", Text("nice​ flat❤"))
}

func TestTextKeepsHebrewScript(t *testing.T) {
	t.Parallel()

	require.Equal(t, "דירה בהדר, 3 חדרים", Text("דירה   בהדר, 3 חדרים "))
}

func TestTextIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"  plain text  ",
		"דירת 4 חדרים\tברחוב הרצל",
		"price: 4,500 NIS!!",
		"",
		"​​",
		"top ❤ floor",
		"mixed עברית and English (top floor)",
	}
	for _, in := range inputs {
		once := Text(in)
		require.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestPhoneReplacesLeadingZero(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+972501234567", Phone("050-123-4567", "+972"))
	require.Equal(t, "+97248123456", Phone("04-812-3456", ""))
}

func TestPhoneRejectsBadLengths(t *testing.T) {
	t.Parallel()

	require.Empty(t, Phone("12345", "+972"))
	require.Empty(t, Phone("0501234567890", "+972"))
	require.Empty(t, Phone("", "+972"))
	require.Empty(t, Phone("phone pending", "+972"))
}

func TestPhoneWithoutLeadingZeroKeptAsDigits(t *testing.T) {
	t.Parallel()

	require.Equal(t, "501234567", Phone("50 123 4567", "+972"))
}
