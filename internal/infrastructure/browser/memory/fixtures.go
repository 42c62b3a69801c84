package memory

const blankURL = "about:blank"

// DefaultPage is served for any URL without an explicit fixture. Its selectors
// cover the built-in scenarios (#submit-button, .content, .loading, ...).
func DefaultPage(url string) Page {
	return Page{
		Title: "Example Domain",
		HTML: `<html><head><title>Example Domain</title></head><body>
<h1>Example Domain</h1>
<div class="content"><p>This domain is for use in illustrative examples in documents.</p>
<a href="https://www.iana.org/domains/example">More information...</a></div>
<div class="loading">Loading...</div>
<form action="` + url + `"><input id="name" name="name"><button id="button" type="button">Button</button><button id="submit-button" type="submit">Submit</button></form>
</body></html>`,
		Elements: map[string]ElementFixture{
			"body": {Text: "Example Domain This domain is for use in illustrative examples in documents. More information... Loading... Button Submit"},
			"h1":   {Text: "Example Domain", HTML: "<h1>Example Domain</h1>"},
			"p": {
				Text: "This domain is for use in illustrative examples in documents.",
				HTML: "<p>This domain is for use in illustrative examples in documents.</p>",
			},
			"a": {
				Text:       "More information...",
				HTML:       `<a href="https://www.iana.org/domains/example">More information...</a>`,
				Attributes: map[string]string{"href": "https://www.iana.org/domains/example"},
				Href:       "https://www.iana.org/domains/example",
			},
			".content": {
				Text: "This domain is for use in illustrative examples in documents. More information...",
				HTML: `<div class="content"><p>This domain is for use in illustrative examples in documents.</p><a href="https://www.iana.org/domains/example">More information...</a></div>`,
				Attributes: map[string]string{"class": "content"},
			},
			".loading": {Text: "Loading...", Attributes: map[string]string{"class": "loading"}},
			"#name":    {Attributes: map[string]string{"id": "name", "name": "name"}},
			"#button":  {Text: "Button", Attributes: map[string]string{"id": "button", "type": "button"}},
			"#submit-button": {
				Text:       "Submit",
				Attributes: map[string]string{"id": "submit-button", "type": "submit"},
			},
		},
	}
}

func blankPage() Page {
	return Page{HTML: "<html><head></head><body></body></html>"}
}
