package hierarchy

import (
	"fmt"

	"github.com/pbaille/covsupport/internal/domain"
)

// XRef resolves lineage names to the Jekyll link markup of their pages.
type XRef struct {
	targets map[string]string
}

func newXRef() *XRef {
	return &XRef{targets: make(map[string]string)}
}

func (x *XRef) add(name string) {
	x.targets[name] = fmt.Sprintf("{{ 'lineages/lineage_%s.html' | absolute_url }}", name)
}

// Has reports whether name has a page to link to.
func (x *XRef) Has(name string) bool {
	_, ok := x.targets[name]
	return ok
}

// Target returns the bare link target for name's page.
func (x *XRef) Target(name string) (string, error) {
	t, ok := x.targets[name]
	if !ok {
		return "", &domain.MissingRecordError{Lineage: name}
	}
	return t, nil
}

// Link returns an anchor to name's page labelled with the name.
func (x *XRef) Link(name string) (string, error) {
	t, err := x.Target(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, t, name), nil
}

// Len is the number of resolvable lineages.
func (x *XRef) Len() int { return len(x.targets) }
