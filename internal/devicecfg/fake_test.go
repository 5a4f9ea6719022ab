package devicecfg

import (
	"context"

	"confd/internal/funckey"
	"confd/internal/models"
)

// memStore serves every reader from in-memory rows of a single device.
type memStore struct {
	profile    *models.DeviceProfile
	features   map[string]string
	extensions map[string]string // "type/typeval" -> exten
	lines      []models.Line
	sipRows    []models.SIPLineRow
	sccpLine   *models.Line
	userLines  map[uint]*models.UserLine
	users      map[uint]*models.User
	userExten  map[uint]string
	registrars map[string]*models.Registrar
	templates  map[uint]*funckey.Template
	err        error
}

func newMemStore() *memStore {
	return &memStore{
		features:   map[string]string{},
		extensions: map[string]string{},
		userLines:  map[uint]*models.UserLine{},
		users:      map[uint]*models.User{},
		userExten:  map[uint]string{},
		registrars: map[string]*models.Registrar{},
		templates:  map[uint]*funckey.Template{},
	}
}

func (m *memStore) deps() Deps {
	return Deps{
		Profiles:   m,
		Features:   m,
		Lines:      m,
		Registrars: m,
		Users:      m,
		Templates:  m,
		FuncKeys:   funckey.NewRegistry(m),
	}
}

func (m *memStore) ProfileForDevice(context.Context, string) (*models.DeviceProfile, error) {
	return m.profile, m.err
}

func (m *memStore) FindFeature(_ context.Context, typeval string) (*models.Extension, error) {
	if m.err != nil {
		return nil, m.err
	}
	if exten, ok := m.features[typeval]; ok {
		return &models.Extension{Exten: exten, Type: models.ExtensionTypeFeatures, TypeVal: typeval}, nil
	}
	return nil, nil
}

func (m *memStore) FindByType(_ context.Context, typ, typeval string) (*models.Extension, error) {
	if exten, ok := m.extensions[typ+"/"+typeval]; ok {
		return &models.Extension{Exten: exten, Type: typ, TypeVal: typeval}, nil
	}
	return nil, nil
}

func (m *memStore) MainExtensionForUser(_ context.Context, userID uint) (*models.Extension, error) {
	if exten, ok := m.userExten[userID]; ok {
		return &models.Extension{Exten: exten}, nil
	}
	return nil, nil
}

func (m *memStore) LinesForDevice(context.Context, string) ([]models.Line, error) {
	return m.lines, m.err
}

func (m *memStore) SIPLinesForDevice(context.Context, string) ([]models.SIPLineRow, error) {
	return m.sipRows, m.err
}

func (m *memStore) FindSCCPLineForDevice(context.Context, string) (*models.Line, error) {
	return m.sccpLine, m.err
}

func (m *memStore) MainUserLine(_ context.Context, lineID uint) (*models.UserLine, error) {
	return m.userLines[lineID], m.err
}

func (m *memStore) GetRegistrar(_ context.Context, id string) (*models.Registrar, error) {
	return m.registrars[id], m.err
}

func (m *memStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	return m.users[id], m.err
}

func (m *memStore) GetTemplate(_ context.Context, id uint) (*funckey.Template, error) {
	return m.templates[id], m.err
}
