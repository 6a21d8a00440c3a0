package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitNameLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		title  string
		person string
		suffix string
	}{
		{"honorific and credential", "Prof Jane Doe PhD", "Prof", "Jane Doe", "PhD"},
		{"comma delimited credentials", "Dr John Smith, MBE, FRS", "Dr", "John Smith", "MBE, FRS"},
		{"initial is not a credential", "Dr A. Lee", "Dr", "A. Lee", ""},
		{"plain name", "Jane Doe", "", "Jane Doe", ""},
		{"long honorific", "Professor Alan Turing OBE FRS", "Professor", "Alan Turing", "OBE FRS"},
		{"parenthesized token", "Dr Kim Park (Hons)", "Dr", "Kim Park", "(Hons)"},
		{"numeric token", "Ms Pat Chen MB2", "Ms", "Pat Chen", "MB2"},
		{"only a name after comma fallback", "de la Cruz", "", "de la Cruz", ""},
		{"empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, person, suffix := SplitNameLine(tt.in)
			require.Equal(t, tt.title, title)
			require.Equal(t, tt.person, person)
			require.Equal(t, tt.suffix, suffix)
		})
	}
}

func TestSplitNameLinePreservesSourceCommas(t *testing.T) {
	t.Parallel()

	// Commas between credentials survive; a space-delimited run stays spaced.
	_, _, withCommas := SplitNameLine("Dr John Smith, MBE, FRS")
	require.Equal(t, "MBE, FRS", withCommas)

	_, _, withSpaces := SplitNameLine("Dr John Smith MBE FRS")
	require.Equal(t, "MBE FRS", withSpaces)
}

func TestIsCredentialToken(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"PhD", "MBE", "FRS", "B.Sc.", "(Hons)", "MB2", "SFHEA"} {
		require.True(t, isCredentialToken(tok), "expected %q to look like a credential", tok)
	}
	for _, tok := range []string{"Smith", "Lee", "de", "O'Brien", ""} {
		require.False(t, isCredentialToken(tok), "expected %q to look like a name token", tok)
	}
}
