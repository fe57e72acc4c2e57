// Package articles serves the site's blog posts. Each post is a markdown file
// with YAML front matter; the first two blocks of the body repeat the title
// and subtitle and are dropped.
package articles

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

//go:embed content/*.md
var content embed.FS

var (
	ErrNotFound = errors.New("article not found")

	frontMatterDelim = []byte("---")
	blockSeparator   = regexp.MustCompile(`\n{2,}`)
)

type Store struct {
	ordered []models.Article
	bySlug  map[string]int
}

// Default loads the articles compiled into the binary.
func Default() (*Store, error) {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		return nil, errors.Wrap(err, "articles: open embedded content")
	}
	return NewStore(sub)
}

// NewStore parses every *.md file at the root of fsys. Articles are ordered by
// their order field, then slug.
func NewStore(fsys fs.FS) (*Store, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, errors.Wrap(err, "articles: list files")
	}

	s := &Store{bySlug: make(map[string]int, len(names))}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.Wrapf(err, "articles: read %s", name)
		}
		article, err := parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "articles: parse %s", name)
		}
		if article.Slug == "" {
			article.Slug = strings.TrimSuffix(path.Base(name), ".md")
		}
		s.ordered = append(s.ordered, article)
	}

	sort.SliceStable(s.ordered, func(i, j int) bool {
		if s.ordered[i].Order != s.ordered[j].Order {
			return s.ordered[i].Order < s.ordered[j].Order
		}
		return s.ordered[i].Slug < s.ordered[j].Slug
	})
	for i, a := range s.ordered {
		if _, dup := s.bySlug[a.Slug]; dup {
			return nil, errors.Errorf("articles: duplicate slug %q", a.Slug)
		}
		s.bySlug[a.Slug] = i
	}
	return s, nil
}

// List returns the article summaries in site order.
func (s *Store) List() []models.ArticleSummary {
	out := make([]models.ArticleSummary, 0, len(s.ordered))
	for _, a := range s.ordered {
		out = append(out, models.ArticleSummary{
			Order:       a.Order,
			Slug:        a.Slug,
			Title:       a.Title,
			Summary:     a.Summary,
			ReadingTime: a.ReadingTime,
			Focus:       a.Focus,
		})
	}
	return out
}

func (s *Store) Get(slug string) (models.Article, error) {
	i, ok := s.bySlug[slug]
	if !ok {
		return models.Article{}, ErrNotFound
	}
	return s.ordered[i], nil
}

func parse(raw []byte) (models.Article, error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	var article models.Article
	body := raw
	if bytes.HasPrefix(raw, frontMatterDelim) {
		rest := raw[len(frontMatterDelim):]
		end := bytes.Index(rest, []byte("\n---"))
		if end < 0 {
			return models.Article{}, errors.New("unterminated front matter")
		}
		if err := yaml.Unmarshal(rest[:end], &article); err != nil {
			return models.Article{}, errors.Wrap(err, "decode front matter")
		}
		body = rest[end+len("\n---"):]
	}

	article.Content = stripIntroBlocks(string(body))
	return article, nil
}

func stripIntroBlocks(raw string) string {
	blocks := blockSeparator.Split(strings.TrimSpace(raw), -1)
	if len(blocks) <= 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(blocks[2:], "\n\n"))
}
