package funckey

import (
	"sort"

	"confd/internal/models"
)

type FuncKey struct {
	Label       string
	BLF         bool
	Destination Destination
}

// Template maps a key position to its definition.
type Template struct {
	ID      uint
	Name    string
	Private bool
	Keys    map[int]FuncKey
}

// Positions returns the key positions in ascending order.
func (t Template) Positions() []int {
	out := make([]int, 0, len(t.Keys))
	for pos := range t.Keys {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Merge builds the effective template of a user: every key of the public template,
// overridden position by position by the keys of the private one.
// Neither argument is modified.
func Merge(public, private Template) Template {
	out := Template{
		ID:      private.ID,
		Name:    private.Name,
		Private: private.Private,
		Keys:    make(map[int]FuncKey, len(public.Keys)+len(private.Keys)),
	}
	for pos, k := range public.Keys {
		out.Keys[pos] = k
	}
	for pos, k := range private.Keys {
		out.Keys[pos] = k
	}
	return out
}

// FromModel decodes a stored template and its mappings.
func FromModel(m models.FuncKeyTemplate) (Template, error) {
	t := Template{
		ID:      m.ID,
		Name:    m.Name,
		Private: m.Private,
		Keys:    make(map[int]FuncKey, len(m.Mappings)),
	}
	for _, mp := range m.Mappings {
		dest, err := DecodeDestination(mp.DestinationType, mp.Destination)
		if err != nil {
			return Template{}, err
		}
		t.Keys[mp.Position] = FuncKey{Label: mp.Label, BLF: mp.BLF, Destination: dest}
	}
	return t, nil
}
