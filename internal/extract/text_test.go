package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", CleanText("  a\n\tb   c "))
	require.Equal(t, "", CleanText("   \n\t  "))
	require.Equal(t, "plain", CleanText("plain"))
}

func TestHashIsStable(t *testing.T) {
	t.Parallel()

	require.Equal(t, Hash("some profile text"), Hash("some profile text"))
	require.NotEqual(t, Hash("some profile text"), Hash("some profile text."))
	require.Len(t, Hash(""), 64)
}

func TestText(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>Dr Jane Doe - Staff</title>
		<script>var x = "tracker";</script>
		<style>.hidden{display:none}</style></head>
		<body>
		<nav>Home About</nav>
		<h1>Dr Jane Doe</h1>
		<h2>Research</h2>
		<p>Jane studies marine biology.</p>
		<footer>Copyright</footer>
		</body></html>`

	got := Text(html)

	require.True(t, strings.HasPrefix(got, "Dr Jane Doe - Staff"), "title leads: %q", got)
	require.Contains(t, got, "Dr Jane Doe Research")
	require.Contains(t, got, "Jane studies marine biology.")
	require.NotContains(t, got, "tracker")
	require.NotContains(t, got, "display:none")
	require.NotContains(t, got, "Home About")
	require.NotContains(t, got, "Copyright")
	require.NotContains(t, got, "\n")
}

func TestTextEmptyDocument(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Text(""))
}
