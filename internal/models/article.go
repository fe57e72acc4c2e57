package models

// ArticleImage is an illustration attached to an article.
type ArticleImage struct {
	Src     string `json:"src" yaml:"src"`
	Caption string `json:"caption" yaml:"caption"`
}

// Article is one blog post of the site.
type Article struct {
	Order       string         `json:"order" yaml:"order"`
	Slug        string         `json:"slug" yaml:"slug"`
	Title       string         `json:"title" yaml:"title"`
	Subtitle    string         `json:"subtitle" yaml:"subtitle"`
	Summary     string         `json:"summary" yaml:"summary"`
	ReadingTime string         `json:"reading_time" yaml:"reading_time"`
	Meta        []string       `json:"meta" yaml:"meta"`
	Focus       string         `json:"focus" yaml:"focus"`
	Images      []ArticleImage `json:"images" yaml:"images"`
	Content     string         `json:"content,omitempty" yaml:"-"`
}

// ArticleSummary is the list view of an article, without the body.
type ArticleSummary struct {
	Order       string `json:"order"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	ReadingTime string `json:"reading_time"`
	Focus       string `json:"focus"`
}

// ArticleListResponse wraps the ordered article summaries.
type ArticleListResponse struct {
	Articles []ArticleSummary `json:"articles"`
}
