package config

import "github.com/mohae/deepcopy"

// MockConfig keeps a deep copy of Conf so tests can mutate the global freely.
type MockConfig struct {
	copy Config
}

var mockConfigInstance *MockConfig

func GetMockConfig() *MockConfig {
	if mockConfigInstance == nil {
		mockConfigInstance = new()
	}
	return mockConfigInstance
}

func new() *MockConfig {
	return &MockConfig{copy: deepcopy.Copy(*Conf).(Config)}
}

// Reset restores Conf to the snapshot taken by GetMockConfig.
func (t *MockConfig) Reset() {
	restored := deepcopy.Copy(t.copy).(Config)
	Conf = &restored
}
