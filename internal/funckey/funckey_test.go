package funckey

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"confd/internal/models"
)

type fakeLookup struct {
	features map[string]string
	byType   map[string]string // "type/typeval" -> exten
	users    map[uint]string
	err      error
}

func (f *fakeLookup) FindFeature(_ context.Context, typeval string) (*models.Extension, error) {
	if f.err != nil {
		return nil, f.err
	}
	if exten, ok := f.features[typeval]; ok {
		return &models.Extension{Exten: exten, Type: models.ExtensionTypeFeatures, TypeVal: typeval}, nil
	}
	return nil, nil
}

func (f *fakeLookup) FindByType(_ context.Context, typ, typeval string) (*models.Extension, error) {
	if exten, ok := f.byType[typ+"/"+typeval]; ok {
		return &models.Extension{Exten: exten, Type: typ, TypeVal: typeval}, nil
	}
	return nil, nil
}

func (f *fakeLookup) MainExtensionForUser(_ context.Context, userID uint) (*models.Extension, error) {
	if exten, ok := f.users[userID]; ok {
		return &models.Extension{Exten: exten}, nil
	}
	return nil, nil
}

func newLookup() *fakeLookup {
	return &fakeLookup{
		features: map[string]string{
			"fwdunc":     "_*21.",
			"fwdbusy":    "_*23.",
			"enablednd":  "*25",
			"paging":     "_*11.",
			"callrecord": "*26",
		},
		byType: map[string]string{
			"group/4":      "2000",
			"queue/5":      "3000",
			"conference/6": "4000",
			"parking/7":    "700",
			"paging/8":     "55",
		},
		users: map[uint]string{42: "1042"},
	}
}

func TestMergePrivateOverridesPublic(t *testing.T) {
	public := Template{ID: 1, Keys: map[int]FuncKey{
		1: {Label: "pub1", Destination: CustomDestination{Exten: "1"}},
		3: {Label: "B", Destination: CustomDestination{Exten: "B"}},
	}}
	private := Template{ID: 2, Private: true, Keys: map[int]FuncKey{
		3: {Label: "A", Destination: CustomDestination{Exten: "A"}},
		5: {Label: "priv5", Destination: CustomDestination{Exten: "5"}},
	}}

	merged := Merge(public, private)

	assert.Equal(t, []int{1, 3, 5}, merged.Positions())
	assert.Equal(t, "A", merged.Keys[3].Label)
	assert.Equal(t, "pub1", merged.Keys[1].Label)
	assert.Equal(t, uint(2), merged.ID)

	// sources untouched
	assert.Equal(t, "B", public.Keys[3].Label)
	assert.Len(t, public.Keys, 2)
	assert.Len(t, private.Keys, 2)
}

func TestMergeEmptyPublic(t *testing.T) {
	private := Template{Keys: map[int]FuncKey{2: {Label: "x", Destination: CustomDestination{Exten: "9"}}}}
	merged := Merge(Template{}, private)
	assert.Equal(t, private.Keys, merged.Keys)
}

func TestDecodeDestination(t *testing.T) {
	d, err := DecodeDestination(TypeForward, []byte(`{"forward":"busy","exten":"1234"}`))
	require.NoError(t, err)
	assert.Equal(t, ForwardDestination{Forward: "busy", Exten: "1234"}, d)

	d, err = DecodeDestination(TypeOnlineRec, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeOnlineRec, d.Type())

	_, err = DecodeDestination("bsfilter", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDestination))

	_, err = DecodeDestination(TypeUser, []byte(`{"user_id":"nope"}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownDestination))
}

func TestFromModel(t *testing.T) {
	m := models.FuncKeyTemplate{ID: 9, Name: "tpl", Mappings: []models.FuncKeyMapping{
		{TemplateID: 9, Position: 1, Label: "Bob", BLF: true, DestinationType: TypeUser, Destination: datatypes.JSON(`{"user_id":42}`)},
		{TemplateID: 9, Position: 2, DestinationType: TypeParkPosition, Destination: datatypes.JSON(`{"position":701}`)},
	}}

	tpl, err := FromModel(m)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, tpl.Positions())
	assert.Equal(t, UserDestination{UserID: 42}, tpl.Keys[1].Destination)
	assert.True(t, tpl.Keys[1].BLF)

	m.Mappings = append(m.Mappings, models.FuncKeyMapping{Position: 3, DestinationType: "teleport"})
	_, err = FromModel(m)
	assert.ErrorIs(t, err, ErrUnknownDestination)
}

func TestRegistryConvert(t *testing.T) {
	line := &models.Line{ID: 1, Position: 1}
	tpl := Template{Keys: map[int]FuncKey{
		1:  {Label: "Bob", BLF: true, Destination: UserDestination{UserID: 42}},
		2:  {Label: "grp", Destination: GroupDestination{GroupID: 4}},
		3:  {Destination: QueueDestination{QueueID: 5}},
		4:  {Destination: ConferenceDestination{ConferenceID: 6}},
		5:  {Destination: CustomDestination{Exten: "*99"}},
		6:  {Destination: ServiceDestination{Service: "enablednd"}},
		7:  {BLF: true, Destination: ForwardDestination{Forward: "unconditional", Exten: "555"}},
		8:  {Destination: ParkPositionDestination{Position: 701}},
		9:  {Destination: ParkingDestination{ParkingLotID: 7}},
		10: {Destination: PagingDestination{PagingID: 8}},
		11: {Destination: OnlineRecDestination{}},
	}}

	out, err := NewRegistry(newLookup()).Convert(context.Background(), line, tpl)
	require.NoError(t, err)

	expect := map[string]struct{ typ, value string }{
		"1":  {KeyTypeBLF, "1042"},
		"2":  {KeyTypeSpeedDial, "2000"},
		"3":  {KeyTypeSpeedDial, "3000"},
		"4":  {KeyTypeSpeedDial, "4000"},
		"5":  {KeyTypeSpeedDial, "*99"},
		"6":  {KeyTypeSpeedDial, "*25"},
		"7":  {KeyTypeBLF, "*21555"},
		"8":  {KeyTypePark, "701"},
		"9":  {KeyTypePark, "700"},
		"10": {KeyTypeSpeedDial, "*1155"},
		"11": {KeyTypeSpeedDial, "*26"},
	}
	require.Len(t, out, len(expect))
	for pos, want := range expect {
		entry, ok := out[pos].(map[string]any)
		require.True(t, ok, pos)
		assert.Equal(t, want.typ, entry["type"], pos)
		assert.Equal(t, want.value, entry["value"], pos)
		assert.Equal(t, 1, entry["line"], pos)
	}
	assert.Equal(t, "Bob", out["1"].(map[string]any)["label"])
}

func TestRegistryConvertSkipsMissingTargets(t *testing.T) {
	tpl := Template{Keys: map[int]FuncKey{
		1: {Destination: UserDestination{UserID: 1}},
		2: {Destination: GroupDestination{GroupID: 99}},
		3: {Destination: ServiceDestination{Service: "vmuserpurge"}},
		4: {Destination: CustomDestination{}},
	}}

	out, err := NewRegistry(newLookup()).Convert(context.Background(), &models.Line{Position: 1}, tpl)
	require.NoError(t, err)
	assert.Empty(t, out)
}

type bogusDestination struct{}

func (bogusDestination) Type() string { return "bogus" }

func TestRegistryConvertUnknownTypeFails(t *testing.T) {
	tpl := Template{Keys: map[int]FuncKey{1: {Destination: bogusDestination{}}}}

	_, err := NewRegistry(newLookup()).Convert(context.Background(), &models.Line{Position: 1}, tpl)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDestination)
}

func TestRegistryConvertUnknownForward(t *testing.T) {
	tpl := Template{Keys: map[int]FuncKey{1: {Destination: ForwardDestination{Forward: "sideways"}}}}

	_, err := NewRegistry(newLookup()).Convert(context.Background(), &models.Line{Position: 1}, tpl)
	require.Error(t, err)
}

func TestRegistryConvertPropagatesLookupError(t *testing.T) {
	lk := newLookup()
	lk.err = errors.New("db down")
	tpl := Template{Keys: map[int]FuncKey{1: {Destination: ServiceDestination{Service: "enablednd"}}}}

	_, err := NewRegistry(lk).Convert(context.Background(), &models.Line{Position: 1}, tpl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
