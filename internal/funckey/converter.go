package funckey

import (
	"context"
	"fmt"
	"strconv"

	"confd/internal/models"
)

const (
	KeyTypeBLF       = "blf"
	KeyTypeSpeedDial = "speeddial"
	KeyTypePark      = "park"
)

// Lookup resolves the extensions function keys point at. Finders return nil
// without error when nothing matches.
type Lookup interface {
	FindFeature(ctx context.Context, typeval string) (*models.Extension, error)
	FindByType(ctx context.Context, typ, typeval string) (*models.Extension, error)
	MainExtensionForUser(ctx context.Context, userID uint) (*models.Extension, error)
}

// Converter turns one key into provd funckey entries keyed by position.
type Converter interface {
	Build(ctx context.Context, line *models.Line, position int, key FuncKey) (map[string]any, error)
}

// valueFunc returns the dial string for a destination, or ok=false when the
// target does not exist.
type valueFunc func(ctx context.Context, d Destination) (value string, ok bool, err error)

type converter struct {
	keyType string
	value   valueFunc
}

func (c converter) Build(ctx context.Context, line *models.Line, position int, key FuncKey) (map[string]any, error) {
	value, ok, err := c.value(ctx, key.Destination)
	if err != nil || !ok {
		return nil, err
	}
	typ := c.keyType
	if typ == "" {
		typ = KeyTypeSpeedDial
		if key.BLF {
			typ = KeyTypeBLF
		}
	}
	return map[string]any{
		strconv.Itoa(position): map[string]any{
			"label": key.Label,
			"type":  typ,
			"line":  line.Position,
			"value": value,
		},
	}, nil
}

var forwardFeatures = map[string]string{
	"busy":          "fwdbusy",
	"noanswer":      "fwdrna",
	"unconditional": "fwdunc",
}

// Registry dispatches keys to the converter of their destination type.
type Registry struct {
	converters map[string]Converter
}

func NewRegistry(lookup Lookup) *Registry {
	ext := func(typ string, id func(Destination) uint) valueFunc {
		return func(ctx context.Context, d Destination) (string, bool, error) {
			e, err := lookup.FindByType(ctx, typ, strconv.FormatUint(uint64(id(d)), 10))
			if err != nil || e == nil {
				return "", false, err
			}
			return e.Exten, true, nil
		}
	}
	feature := func(ctx context.Context, typeval string) (string, bool, error) {
		e, err := lookup.FindFeature(ctx, typeval)
		if err != nil || e == nil {
			return "", false, err
		}
		return e.CleanExten(), true, nil
	}

	return &Registry{converters: map[string]Converter{
		TypeUser: converter{value: func(ctx context.Context, d Destination) (string, bool, error) {
			e, err := lookup.MainExtensionForUser(ctx, d.(UserDestination).UserID)
			if err != nil || e == nil {
				return "", false, err
			}
			return e.Exten, true, nil
		}},
		TypeGroup:      converter{value: ext("group", func(d Destination) uint { return d.(GroupDestination).GroupID })},
		TypeQueue:      converter{value: ext("queue", func(d Destination) uint { return d.(QueueDestination).QueueID })},
		TypeConference: converter{value: ext("conference", func(d Destination) uint { return d.(ConferenceDestination).ConferenceID })},
		TypeParking: converter{
			keyType: KeyTypePark,
			value:   ext("parking", func(d Destination) uint { return d.(ParkingDestination).ParkingLotID }),
		},
		TypeCustom: converter{value: func(_ context.Context, d Destination) (string, bool, error) {
			exten := d.(CustomDestination).Exten
			return exten, exten != "", nil
		}},
		TypeService: converter{value: func(ctx context.Context, d Destination) (string, bool, error) {
			return feature(ctx, d.(ServiceDestination).Service)
		}},
		TypeForward: converter{value: func(ctx context.Context, d Destination) (string, bool, error) {
			fwd := d.(ForwardDestination)
			typeval, known := forwardFeatures[fwd.Forward]
			if !known {
				return "", false, fmt.Errorf("unknown forward %q", fwd.Forward)
			}
			prefix, ok, err := feature(ctx, typeval)
			if err != nil || !ok {
				return "", false, err
			}
			return prefix + fwd.Exten, true, nil
		}},
		TypeParkPosition: converter{
			keyType: KeyTypePark,
			value: func(_ context.Context, d Destination) (string, bool, error) {
				return strconv.Itoa(d.(ParkPositionDestination).Position), true, nil
			},
		},
		TypePaging: converter{value: func(ctx context.Context, d Destination) (string, bool, error) {
			prefix, ok, err := feature(ctx, "paging")
			if err != nil || !ok {
				return "", false, err
			}
			number, ok, err := ext("paging", func(d Destination) uint { return d.(PagingDestination).PagingID })(ctx, d)
			if err != nil || !ok {
				return "", false, err
			}
			return prefix + number, true, nil
		}},
		TypeOnlineRec: converter{value: func(ctx context.Context, _ Destination) (string, bool, error) {
			return feature(ctx, "callrecord")
		}},
	}}
}

// Convert builds the funckeys section for every key of tpl, bound to line.
func (r *Registry) Convert(ctx context.Context, line *models.Line, tpl Template) (map[string]any, error) {
	out := make(map[string]any, len(tpl.Keys))
	for _, pos := range tpl.Positions() {
		key := tpl.Keys[pos]
		if key.Destination == nil {
			return nil, fmt.Errorf("%w: position %d has no destination", ErrUnknownDestination, pos)
		}
		c, ok := r.converters[key.Destination.Type()]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownDestination, key.Destination.Type(), pos)
		}
		entries, err := c.Build(ctx, line, pos, key)
		if err != nil {
			return nil, fmt.Errorf("func key %d: %w", pos, err)
		}
		for k, v := range entries {
			out[k] = v
		}
	}
	return out, nil
}
