package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// resolveFunc maps a query time to the assets to render.
type resolveFunc func(d *Dataset, at time.Time) []Item

// Dataset binds a sorted, frozen item timeline to the resolution policy of its
// kind. It is safe for concurrent reads.
type Dataset struct {
	ID            string
	Kind          Kind
	TimeSensitive bool

	items   []Item
	keys    []time.Time
	resolve resolveFunc
}

// NewDataset sorts a copy of items by the kind's timestamp field and selects
// the resolution policy. Swaths sort on time_start, everything else on
// datetime. Non time-sensitive vector kinds keep their input order and do not
// need timestamps.
func NewDataset(id string, kind Kind, items []Item) (*Dataset, error) {
	d := &Dataset{
		ID:            id,
		Kind:          kind,
		TimeSensitive: kind.TimeSensitive(),
		items:         append([]Item(nil), items...),
	}

	if d.TimeSensitive {
		keyOf := Item.Instant
		if kind == KindVectorWindSwath {
			keyOf = Item.IntervalStart
		}
		keys := make([]time.Time, len(d.items))
		for i := range d.items {
			t, err := keyOf(d.items[i])
			if err != nil {
				return nil, err
			}
			keys[i] = t
		}
		sort.Stable(byKey{items: d.items, keys: keys})
		d.keys = keys
	}

	switch kind {
	case KindRaster:
		d.resolve = resolveNearest
	case KindVectorWindVector:
		d.resolve = resolveWindow
	case KindVectorWindSwath:
		d.resolve = resolveNearestPadded
	default:
		d.resolve = resolveAll
	}
	return d, nil
}

// Assets returns the items to render at the given time. A zero time yields
// the default: the representative item for rasters, every item for vectors.
func (d *Dataset) Assets(at time.Time) []Item {
	if len(d.items) == 0 {
		return []Item{}
	}
	return d.resolve(d, at)
}

// Asset returns the single item nearest to at, or the representative item
// when at is zero.
func (d *Dataset) Asset(at time.Time) (Item, bool) {
	if len(d.items) == 0 {
		return Item{}, false
	}
	if at.IsZero() || len(d.keys) == 0 {
		return d.items[0], true
	}
	return d.items[NearestIndex(d.keys, at)], true
}

// NearestDateTime resolves the item nearest to the query time and returns its
// own timestamp in DisplayLayout. An empty or unparseable query, or a dataset
// with no timestamped items, echoes the query unchanged.
func (d *Dataset) NearestDateTime(query string) string {
	at, err := ParseTimestamp(query)
	if err != nil || len(d.keys) == 0 {
		return query
	}
	return FormatDisplay(d.keys[NearestIndex(d.keys, at)])
}

// Items returns a copy of the full sorted timeline.
func (d *Dataset) Items() []Item {
	return append([]Item(nil), d.items...)
}

// Len is the number of items in the timeline.
func (d *Dataset) Len() int { return len(d.items) }

// Datetimes returns the search keys in order. Empty for kinds that ignore time.
func (d *Dataset) Datetimes() []time.Time {
	return append([]time.Time(nil), d.keys...)
}

// Representative is the first item of the timeline.
func (d *Dataset) Representative() (Item, bool) {
	if len(d.items) == 0 {
		return Item{}, false
	}
	return d.items[0], true
}

// StartDate and EndDate bound the timeline. Both are zero when the dataset
// has no timestamps.
func (d *Dataset) StartDate() time.Time {
	if len(d.keys) == 0 {
		return time.Time{}
	}
	return d.keys[0]
}

func (d *Dataset) EndDate() time.Time {
	if len(d.keys) == 0 {
		return time.Time{}
	}
	return d.keys[len(d.keys)-1]
}

// Location returns the [lon, lat] of the first vertex of the representative
// item's polygon footprint.
func (d *Dataset) Location() ([2]float64, bool) {
	rep, ok := d.Representative()
	if !ok || rep.Geometry == nil || len(rep.Geometry.Coordinates) == 0 {
		return [2]float64{}, false
	}
	var rings [][][]float64
	if err := json.Unmarshal(rep.Geometry.Coordinates, &rings); err != nil {
		return [2]float64{}, false
	}
	if len(rings) == 0 || len(rings[0]) == 0 || len(rings[0][0]) < 2 {
		return [2]float64{}, false
	}
	return [2]float64{rings[0][0][0], rings[0][0][1]}, true
}

func resolveNearest(d *Dataset, at time.Time) []Item {
	item, _ := d.Asset(at)
	return []Item{item}
}

func resolveAll(d *Dataset, _ time.Time) []Item {
	return d.Items()
}

func resolveWindow(d *Dataset, at time.Time) []Item {
	if at.IsZero() {
		return d.Items()
	}
	start, end := WindowIndices(d.keys, at, DayWindow, WindVectorPadding)
	if start == -1 || end == -1 {
		return []Item{}
	}
	return append([]Item(nil), d.items[start:end+1]...)
}

func resolveNearestPadded(d *Dataset, at time.Time) []Item {
	if at.IsZero() {
		return d.Items()
	}
	idx := NearestIndex(d.keys, at)
	start, end := idx-SwathPadding, idx+SwathPadding
	if start < 0 {
		start = 0
	}
	if end > len(d.items)-1 {
		end = len(d.items) - 1
	}
	return append([]Item(nil), d.items[start:end+1]...)
}

// byKey sorts items and their parsed keys together.
type byKey struct {
	items []Item
	keys  []time.Time
}

func (b byKey) Len() int           { return len(b.items) }
func (b byKey) Less(i, j int) bool { return b.keys[i].Before(b.keys[j]) }
func (b byKey) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
