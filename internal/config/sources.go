package config

// DefaultFeedSources returns a curated list of multilingual world news feeds.
// Each Name is the author key looked up in the authors table to find the
// feed's language.
func DefaultFeedSources() []FeedSource {
	return []FeedSource{
		// English
		{Name: "BBCWorld", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
		{Name: "nytimesworld", URL: "https://rss.nytimes.com/services/xml/rss/nyt/World.xml"},
		{Name: "guardianworld", URL: "https://www.theguardian.com/world/rss"},
		{Name: "NPR", URL: "https://feeds.npr.org/1004/rss.xml"},

		// French
		{Name: "lemondefr", URL: "https://www.lemonde.fr/international/rss_full.xml"},
		{Name: "France24_fr", URL: "https://www.france24.com/fr/rss"},

		// German
		{Name: "derspiegel", URL: "https://www.spiegel.de/international/index.rss"},
		{Name: "tagesschau", URL: "https://www.tagesschau.de/xml/rss2/"},

		// Spanish
		{Name: "el_pais", URL: "https://feeds.elpais.com/mrss-s/pages/ep/site/elpais.com/portada"},

		// Italian
		{Name: "ansa_it", URL: "https://www.ansa.it/sito/ansait_rss.xml"},
	}
}
