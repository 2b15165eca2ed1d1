package catalog

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// DefaultImageDir is where pattern images live relative to the asset root
const DefaultImageDir = "images"

var (
	ErrUnknownPattern = errors.New("unknown pattern")
	ErrEmptyCatalog   = errors.New("pattern catalog is empty")
)

// Pattern is one selectable entry: a display name and the base name of its image
type Pattern struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Rand is the subset of math/rand used to pick a random pattern
type Rand interface {
	Intn(n int) int
}

// Catalog is the ordered, read-only list of patterns a controller can start
type Catalog struct {
	patterns []Pattern
	index    map[string]int
	imageDir string
}

// New builds a catalog from patterns in display order. A repeated name keeps
// its first position and takes the later image, the way object keys behave in
// the catalog document.
func New(patterns []Pattern) (*Catalog, error) {
	c := &Catalog{
		index:    make(map[string]int, len(patterns)),
		imageDir: DefaultImageDir,
	}
	for _, p := range patterns {
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.New("pattern name cannot be empty")
		}
		if strings.TrimSpace(p.Image) == "" {
			return nil, fmt.Errorf("pattern %q has no image", p.Name)
		}
		if i, ok := c.index[p.Name]; ok {
			c.patterns[i].Image = p.Image
			continue
		}
		c.index[p.Name] = len(c.patterns)
		c.patterns = append(c.patterns, p)
	}
	if len(c.patterns) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// SetImageDir changes the directory used by ImagePath
func (c *Catalog) SetImageDir(dir string) {
	c.imageDir = strings.Trim(dir, "/")
}

func (c *Catalog) Len() int {
	return len(c.patterns)
}

// Names returns the pattern names in display order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.patterns))
	for i, p := range c.patterns {
		names[i] = p.Name
	}
	return names
}

// Patterns returns a copy of the entries in display order
func (c *Catalog) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

func (c *Catalog) Lookup(name string) (Pattern, error) {
	i, ok := c.index[name]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %s", ErrUnknownPattern, name)
	}
	return c.patterns[i], nil
}

// ImagePath returns the relative path a display loads for the named pattern,
// e.g. images/star.png
func (c *Catalog) ImagePath(name string) (string, error) {
	p, err := c.Lookup(name)
	if err != nil {
		return "", err
	}
	return path.Join(c.imageDir, p.Image+".png"), nil
}

// Random picks a pattern uniformly
func (c *Catalog) Random(rng Rand) Pattern {
	return c.patterns[rng.Intn(len(c.patterns))]
}
