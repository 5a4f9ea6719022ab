package association

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confd/internal/logs"
	"confd/internal/models"
	"confd/internal/provd"
	"confd/internal/repo"
)

func init() { logs.Discard() }

type world struct {
	lines      map[uint]*models.Line
	extensions map[uint]bool
	users      map[uint]bool
	devices    map[string]*models.Device
	cleared    []string

	reconciled []string
	recErr     error

	provdConfig map[string]string
	autoprov    []string
	deletedCfgs []string
	resetErr    error

	setDeviceErr   error
	setConfigFails int
}

func newWorld() *world {
	return &world{
		lines:       map[uint]*models.Line{},
		extensions:  map[uint]bool{},
		users:       map[uint]bool{},
		devices:     map[string]*models.Device{},
		provdConfig: map[string]string{},
	}
}

// addLine registers a fully configured SIP line.
func (w *world) addLine(id uint, position int) *models.Line {
	sip := "sip"
	l := &models.Line{ID: id, Position: position, EndpointSIPUUID: &sip}
	w.lines[id] = l
	w.extensions[id] = true
	w.users[id] = true
	return l
}

// addSCCPLine registers a fully configured SCCP line.
func (w *world) addSCCPLine(id uint, position int) *models.Line {
	sccp := id
	l := &models.Line{ID: id, Position: position, EndpointSCCPID: &sccp}
	w.lines[id] = l
	w.extensions[id] = true
	w.users[id] = true
	return l
}

func attach(l *models.Line, deviceID string) {
	l.Device = &deviceID
}

func (w *world) Get(_ context.Context, id uint) (*models.Line, error) {
	l, ok := w.lines[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (w *world) LinesForDevice(_ context.Context, deviceID string) ([]models.Line, error) {
	var out []models.Line
	for _, l := range w.lines {
		if l.Device != nil && *l.Device == deviceID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (w *world) MainUserLine(_ context.Context, lineID uint) (*models.UserLine, error) {
	if !w.users[lineID] {
		return nil, nil
	}
	return &models.UserLine{UserID: 1, LineID: lineID, MainUser: true}, nil
}

func (w *world) MainExtension(_ context.Context, lineID uint) (*models.Extension, error) {
	if !w.extensions[lineID] {
		return nil, nil
	}
	return &models.Extension{Exten: "1000"}, nil
}

func (w *world) SetDevice(_ context.Context, lineID uint, deviceID *string) error {
	l, ok := w.lines[lineID]
	if !ok {
		return repo.ErrNotFound
	}
	if deviceID == nil {
		l.Device = nil
		return nil
	}
	if w.setDeviceErr != nil {
		return w.setDeviceErr
	}
	id := *deviceID
	l.Device = &id
	return nil
}

type deviceView struct{ *world }

func (d deviceView) Get(_ context.Context, id string) (*models.Device, error) {
	return d.devices[id], nil
}

func (d deviceView) ClearConfig(_ context.Context, id string) error {
	d.cleared = append(d.cleared, id)
	return nil
}

func (w *world) Reconcile(_ context.Context, deviceID string) (string, bool, error) {
	if w.recErr != nil {
		return "", false, w.recErr
	}
	w.reconciled = append(w.reconciled, deviceID)
	return "sha256:x", true, nil
}

type provdView struct{ *world }

func (p provdView) SetDeviceConfig(_ context.Context, deviceID, configID string) error {
	if p.setConfigFails > 0 {
		p.setConfigFails--
		return provd.ErrUnavailable
	}
	p.provdConfig[deviceID] = configID
	return nil
}

func (p provdView) ResetAutoprov(_ context.Context, deviceID string) error {
	if p.resetErr != nil {
		return p.resetErr
	}
	p.autoprov = append(p.autoprov, deviceID)
	p.provdConfig[deviceID] = "autoprov"
	return nil
}

func (p provdView) DeleteConfig(_ context.Context, id string) error {
	p.deletedCfgs = append(p.deletedCfgs, id)
	return nil
}

func newService(w *world) *Service {
	return NewService(w, deviceView{w}, w, provdView{w})
}

func TestAssociate(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}

	require.NoError(t, newService(w).Associate(context.Background(), 1, "dev1"))
	require.NotNil(t, w.lines[1].Device)
	assert.Equal(t, "dev1", *w.lines[1].Device)
	assert.Equal(t, []string{"dev1"}, w.reconciled)
	assert.Equal(t, "dev1", w.provdConfig["dev1"])
}

func TestAssociateTwiceIsNoop(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	s := newService(w)

	require.NoError(t, s.Associate(context.Background(), 1, "dev1"))
	require.NoError(t, s.Associate(context.Background(), 1, "dev1"))
	assert.Len(t, w.reconciled, 1)
}

func TestAssociateErrors(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(w *world)
		lineID uint
		want   error
	}{
		{
			name:   "unknown line",
			setup:  func(w *world) {},
			lineID: 9,
			want:   repo.ErrNotFound,
		},
		{
			name: "unknown device",
			setup: func(w *world) {
				delete(w.devices, "dev1")
			},
			lineID: 1,
			want:   repo.ErrNotFound,
		},
		{
			name: "no endpoint",
			setup: func(w *world) {
				w.lines[1].EndpointSIPUUID = nil
			},
			lineID: 1,
			want:   ErrMissingAssociation,
		},
		{
			name:   "no extension",
			setup:  func(w *world) { w.extensions[1] = false },
			lineID: 1,
			want:   ErrMissingAssociation,
		},
		{
			name:   "no user",
			setup:  func(w *world) { w.users[1] = false },
			lineID: 1,
			want:   ErrMissingAssociation,
		},
		{
			name: "position taken",
			setup: func(w *world) {
				attach(w.addLine(2, 1), "dev1")
			},
			lineID: 1,
			want:   ErrPositionTaken,
		},
		{
			name: "position taken by bare line",
			setup: func(w *world) {
				attach(w.addLine(2, 1), "dev1")
				w.lines[1].EndpointSIPUUID = nil
				w.extensions[1] = false
				w.users[1] = false
			},
			lineID: 1,
			want:   ErrPositionTaken,
		},
		{
			name: "position taken concurrently",
			setup: func(w *world) {
				w.setDeviceErr = fmt.Errorf("line 1: %w", repo.ErrConflict)
			},
			lineID: 1,
			want:   ErrPositionTaken,
		},
		{
			name: "second sccp line",
			setup: func(w *world) {
				attach(w.addSCCPLine(2, 2), "dev1")
				w.addSCCPLine(3, 1)
			},
			lineID: 3,
			want:   ErrAlreadyAssociated,
		},
		{
			name: "sip next to sccp",
			setup: func(w *world) {
				attach(w.addSCCPLine(2, 2), "dev1")
			},
			lineID: 1,
			want:   ErrAlreadyAssociated,
		},
		{
			name: "sccp next to sip",
			setup: func(w *world) {
				attach(w.addLine(2, 2), "dev1")
				w.addSCCPLine(3, 1)
				delete(w.lines, 1)
			},
			lineID: 3,
			want:   ErrAlreadyAssociated,
		},
		{
			name: "other device",
			setup: func(w *world) {
				dev := "dev2"
				w.lines[1].Device = &dev
			},
			lineID: 1,
			want:   ErrAlreadyAssociated,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld()
			w.addLine(1, 1)
			w.devices["dev1"] = &models.Device{ID: "dev1"}
			tc.setup(w)

			err := newService(w).Associate(context.Background(), tc.lineID, "dev1")
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, w.reconciled)
		})
	}
}

func TestAssociatePositionTakenMessage(t *testing.T) {
	assert.Equal(t, "Cannot associate 2 lines with same position", ErrPositionTaken.Error())
}

func TestAssociateRollsBackWhenReconcileFails(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	w.recErr = errors.New("inconsistent")

	err := newService(w).Associate(context.Background(), 1, "dev1")
	require.Error(t, err)
	assert.Nil(t, w.lines[1].Device)
	assert.Empty(t, w.provdConfig)
}

func TestAssociateRetriesAfterProvdPointerFailure(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	w.setConfigFails = 1
	s := newService(w)

	err := s.Associate(context.Background(), 1, "dev1")
	assert.ErrorIs(t, err, provd.ErrUnavailable)
	assert.Nil(t, w.lines[1].Device)
	assert.Empty(t, w.provdConfig)
	assert.Equal(t, []string{"dev1"}, w.deletedCfgs)
	assert.Equal(t, []string{"dev1"}, w.cleared)

	require.NoError(t, s.Associate(context.Background(), 1, "dev1"))
	require.NotNil(t, w.lines[1].Device)
	assert.Equal(t, "dev1", *w.lines[1].Device)
	assert.Equal(t, "dev1", w.provdConfig["dev1"])
}

func TestAssociatePointerFailureRestoresRemainingLines(t *testing.T) {
	w := newWorld()
	attach(w.addLine(1, 1), "dev1")
	w.addLine(2, 2)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	w.setConfigFails = 1

	err := newService(w).Associate(context.Background(), 2, "dev1")
	assert.ErrorIs(t, err, provd.ErrUnavailable)
	assert.Nil(t, w.lines[2].Device)
	assert.Equal(t, []string{"dev1", "dev1"}, w.reconciled)
	assert.Empty(t, w.deletedCfgs)
}

func TestAssociateSeveralSIPLines(t *testing.T) {
	w := newWorld()
	attach(w.addLine(1, 1), "dev1")
	w.addLine(2, 2)
	w.devices["dev1"] = &models.Device{ID: "dev1"}

	require.NoError(t, newService(w).Associate(context.Background(), 2, "dev1"))
	assert.Equal(t, "dev1", *w.lines[2].Device)
}

func TestDissociateLastLineResetsAutoprov(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	s := newService(w)
	require.NoError(t, s.Associate(context.Background(), 1, "dev1"))

	require.NoError(t, s.Dissociate(context.Background(), 1, "dev1"))
	assert.Nil(t, w.lines[1].Device)
	assert.Equal(t, []string{"dev1"}, w.autoprov)
	assert.Equal(t, []string{"dev1"}, w.deletedCfgs)
	assert.Equal(t, []string{"dev1"}, w.cleared)
}

func TestDissociateToleratesUnknownProvdDevice(t *testing.T) {
	w := newWorld()
	l := w.addLine(1, 1)
	dev := "dev1"
	l.Device = &dev
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	w.resetErr = provd.ErrNotFound

	require.NoError(t, newService(w).Dissociate(context.Background(), 1, "dev1"))
	assert.Equal(t, []string{"dev1"}, w.deletedCfgs)
}

func TestDissociateKeepsDeviceWithRemainingLines(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.addLine(2, 2)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	s := newService(w)
	require.NoError(t, s.Associate(context.Background(), 1, "dev1"))
	require.NoError(t, s.Associate(context.Background(), 2, "dev1"))

	require.NoError(t, s.Dissociate(context.Background(), 1, "dev1"))
	assert.Empty(t, w.autoprov)
	assert.Equal(t, []string{"dev1", "dev1", "dev1"}, w.reconciled)
}

func TestDissociateNotAssociatedIsNoop(t *testing.T) {
	w := newWorld()
	attach(w.addLine(1, 1), "dev1")
	w.addLine(2, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	w.devices["dev2"] = &models.Device{ID: "dev2"}
	s := newService(w)

	require.NoError(t, s.Dissociate(context.Background(), 1, "dev2"))
	require.NoError(t, s.Dissociate(context.Background(), 2, "dev1"))
	assert.Equal(t, "dev1", *w.lines[1].Device)
	assert.Empty(t, w.reconciled)
	assert.Empty(t, w.autoprov)
	assert.Empty(t, w.deletedCfgs)
	assert.Empty(t, w.cleared)
}

func TestReadAssociations(t *testing.T) {
	w := newWorld()
	w.addLine(1, 1)
	w.addLine(2, 2)
	w.addLine(3, 1)
	w.devices["dev1"] = &models.Device{ID: "dev1"}
	s := newService(w)
	require.NoError(t, s.Associate(context.Background(), 1, "dev1"))
	require.NoError(t, s.Associate(context.Background(), 2, "dev1"))

	a, err := s.DeviceForLine(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &Association{LineID: 1, DeviceID: "dev1"}, a)

	a, err = s.DeviceForLine(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = s.DeviceForLine(context.Background(), 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	list, err := s.LinesForDevice(context.Background(), "dev1")
	require.NoError(t, err)
	assert.Equal(t, []Association{{LineID: 1, DeviceID: "dev1"}, {LineID: 2, DeviceID: "dev1"}}, list)

	_, err = s.LinesForDevice(context.Background(), "ghost")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
