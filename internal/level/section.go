package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"nise/assets"
)

var ErrUnknownSection = errors.New("unknown section")

// Section is the page a portal leads to.
type Section struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Body     []string `json:"body"`
	Link     string   `json:"link,omitempty"`
}

var (
	sectionsOnce sync.Once
	sections     map[string]Section
	sectionOrder []string
	sectionsErr  error
)

func loadSections() {
	var list []Section
	if err := json.Unmarshal(assets.Sections, &list); err != nil {
		sectionsErr = fmt.Errorf("sections: decode: %w", err)
		return
	}
	sections = make(map[string]Section, len(list))
	for _, s := range list {
		sections[s.ID] = s
		sectionOrder = append(sectionOrder, s.ID)
	}
}

// LoadSection returns the section page with the given id.
func LoadSection(id string) (Section, error) {
	sectionsOnce.Do(loadSections)
	if sectionsErr != nil {
		return Section{}, sectionsErr
	}
	s, ok := sections[id]
	if !ok {
		return Section{}, fmt.Errorf("section %q: %w", id, ErrUnknownSection)
	}
	return s, nil
}

// Sections lists every section in document order.
func Sections() ([]Section, error) {
	sectionsOnce.Do(loadSections)
	if sectionsErr != nil {
		return nil, sectionsErr
	}
	out := make([]Section, 0, len(sectionOrder))
	for _, id := range sectionOrder {
		out = append(out, sections[id])
	}
	return out, nil
}
