package funckey

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownDestination is returned for a destination type outside the supported set.
var ErrUnknownDestination = errors.New("unknown func key destination type")

const (
	TypeUser         = "user"
	TypeGroup        = "group"
	TypeQueue        = "queue"
	TypeConference   = "conference"
	TypeCustom       = "custom"
	TypeService      = "service"
	TypeForward      = "forward"
	TypeParkPosition = "park_position"
	TypeParking      = "parking"
	TypePaging       = "paging"
	TypeOnlineRec    = "onlinerec"
)

// Destination is what a function key dials or monitors.
type Destination interface {
	Type() string
}

type UserDestination struct {
	UserID uint `json:"user_id"`
}

type GroupDestination struct {
	GroupID uint `json:"group_id"`
}

type QueueDestination struct {
	QueueID uint `json:"queue_id"`
}

type ConferenceDestination struct {
	ConferenceID uint `json:"conference_id"`
}

type CustomDestination struct {
	Exten string `json:"exten"`
}

// ServiceDestination points at a feature extension by its typeval (enablevm, pickup, ...).
type ServiceDestination struct {
	Service string `json:"service"`
}

// ForwardDestination is one of busy, noanswer or unconditional, with an optional target.
type ForwardDestination struct {
	Forward string `json:"forward"`
	Exten   string `json:"exten,omitempty"`
}

type ParkPositionDestination struct {
	Position int `json:"position"`
}

type ParkingDestination struct {
	ParkingLotID uint `json:"parking_lot_id"`
}

type PagingDestination struct {
	PagingID uint `json:"paging_id"`
}

type OnlineRecDestination struct{}

func (UserDestination) Type() string         { return TypeUser }
func (GroupDestination) Type() string        { return TypeGroup }
func (QueueDestination) Type() string        { return TypeQueue }
func (ConferenceDestination) Type() string   { return TypeConference }
func (CustomDestination) Type() string       { return TypeCustom }
func (ServiceDestination) Type() string      { return TypeService }
func (ForwardDestination) Type() string      { return TypeForward }
func (ParkPositionDestination) Type() string { return TypeParkPosition }
func (ParkingDestination) Type() string      { return TypeParking }
func (PagingDestination) Type() string       { return TypePaging }
func (OnlineRecDestination) Type() string    { return TypeOnlineRec }

var decoders = map[string]func([]byte) (Destination, error){
	TypeUser:         decodeAs[UserDestination],
	TypeGroup:        decodeAs[GroupDestination],
	TypeQueue:        decodeAs[QueueDestination],
	TypeConference:   decodeAs[ConferenceDestination],
	TypeCustom:       decodeAs[CustomDestination],
	TypeService:      decodeAs[ServiceDestination],
	TypeForward:      decodeAs[ForwardDestination],
	TypeParkPosition: decodeAs[ParkPositionDestination],
	TypeParking:      decodeAs[ParkingDestination],
	TypePaging:       decodeAs[PagingDestination],
	TypeOnlineRec:    decodeAs[OnlineRecDestination],
}

// DecodeDestination builds the destination variant for typ from its stored parameters.
func DecodeDestination(typ string, raw []byte) (Destination, error) {
	dec, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDestination, typ)
	}
	d, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s destination: %w", typ, err)
	}
	return d, nil
}

func decodeAs[T Destination](raw []byte) (Destination, error) {
	var d T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
	}
	return d, nil
}
