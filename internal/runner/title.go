package runner

import (
	"strings"

	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
)

// pageTitle extracts og:title or <title> from an HTML response.
func pageTitle(resp *httpclient.Response) string {
	doc, err := resp.Document()
	if err != nil {
		return ""
	}
	og := ""
	if node := doc.Find(`meta[property="og:title"]`).First(); node.Length() > 0 {
		og, _ = node.Attr("content")
	}
	return firstNonEmpty(og, doc.Find("title").First().Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
