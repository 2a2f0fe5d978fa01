package initializer

import (
	"github.com/qnkhuat/deepread/internal/config"
	"github.com/stretchr/testify/mock"
)

// MockConfigManager is a mock implementation of config.Manager
type MockConfigManager struct {
	mock.Mock
}

func (m *MockConfigManager) Load() (*config.Config, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.Config)
	return cfg, args.Error(1)
}

func (m *MockConfigManager) Save(cfg *config.Config) error {
	args := m.Called(cfg)
	return args.Error(0)
}

func (m *MockConfigManager) Exists() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockConfigManager) Path() string {
	args := m.Called()
	return args.String(0)
}
