package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexPage = `<!DOCTYPE HTML>
<html>
<head><title>Index of /files/</title></head>
<body>
<h1>Index of /files/</h1>
<table>
<tr><td><a href="../">../</a></td></tr>
<tr><td><a href="No-Intro/">No-Intro/</a></td></tr>
<tr><td><a href="Redump/">Redump/</a></td></tr>
<tr><td><a href="example.zip">example.zip</a></td></tr>
<tr><td><a href="archive.7z">archive.7z</a></td></tr>
<tr><td><a name="anchor-without-href">x</a></td></tr>
<tr><td><a href="example.zip">example.zip (again)</a></td></tr>
</table>
</body>
</html>`

func TestExtractLinks(t *testing.T) {
	links, err := NewExtractor().ExtractLinks([]byte(indexPage), "text/html")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"../",
		"No-Intro/",
		"Redump/",
		"example.zip",
		"archive.7z",
		"example.zip",
	}, links)
}

func TestExtractLinksLatin1(t *testing.T) {
	// "Pokémon/" encoded as ISO-8859-1
	markup := []byte("<html><body><a href=\"Pok\xe9mon/\">x</a></body></html>")

	links, err := NewExtractor().ExtractLinks(markup, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pokémon/"}, links)
}

func TestExtractLinksMalformed(t *testing.T) {
	links, err := NewExtractor().ExtractLinks([]byte("<a href=\"a/\"><<<>>> not html at all"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/"}, links)

	links, err = NewExtractor().ExtractLinks(nil, "")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractLinksEmptyBody(t *testing.T) {
	for _, contentType := range []string{"", "text/html", "text/html; charset=iso-8859-1"} {
		links, err := NewExtractor().ExtractLinks([]byte{}, contentType)
		require.NoError(t, err, contentType)
		assert.Empty(t, links, contentType)
	}
}
