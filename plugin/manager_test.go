package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockConfig is a mock configuration struct for testing structured config.
type MockConfig struct {
	Addr string
	Tag  string // Used for duplicate tag testing
}

// MockFactory is a mock implementation of the Factory interface for testing.
type MockFactory struct {
	PType Type
	PName string
	// Test helpers
	SetupCount   int
	DestroyCount int
}

func (m *MockFactory) Type() Type   { return m.PType }
func (m *MockFactory) Name() string { return m.PName }
func (m *MockFactory) ConfigType() any {
	return &MockConfig{}
}
func (m *MockFactory) Setup(config any) (Plugin, error) {
	m.SetupCount++
	return &MockPlugin{FName: m.PName}, nil
}
func (m *MockFactory) Destroy(p Plugin) {
	m.DestroyCount++
}

// MockPlugin is a mock plugin instance for testing.
type MockPlugin struct {
	FName string
}

func (mp *MockPlugin) FactoryName() string {
	return mp.FName
}

func TestManager(t *testing.T) {
	factory := &MockFactory{PType: Transport, PName: "mockgram"}

	t.Run("RegisterFactory", func(t *testing.T) {
		manager := NewManager()
		manager.RegisterFactory(factory)
		assert.NotNil(t, manager.factories[Transport])
		assert.Equal(t, factory, manager.factories[Transport]["mockgram"])
	})

	t.Run("SetupAndGetPlugins", func(t *testing.T) {
		manager := NewManager()

		pluginConf := map[string]any{
			"transport": map[string]any{
				"mockgram": map[string]any{
					"addr": "/run/mock.sock",
					"tag":  "default",
				},
				"othergram": map[string]any{
					"addr": "127.0.0.1:5555",
				},
			},
		}

		otherFactory := &MockFactory{PType: Transport, PName: "othergram"}
		manager.RegisterFactory(otherFactory)
		manager.RegisterFactory(factory)

		err := manager.SetupPlugins(pluginConf)
		assert.NoError(t, err)

		p, err := manager.GetPlugin(Transport, "default")
		assert.NoError(t, err)
		assert.NotNil(t, p)
		assert.IsType(t, &MockPlugin{}, p)

		dp, err := manager.GetDefaultPlugin(Transport)
		assert.NoError(t, err)
		assert.Equal(t, p, dp)

		np, err := manager.GetPlugin(Transport, "othergram")
		assert.NoError(t, err)
		assert.NotNil(t, np)
	})

	t.Run("ErrorOnDuplicateTag", func(t *testing.T) {
		manager := NewManager()

		manager.RegisterFactory(&MockFactory{PType: Transport, PName: "gram1"})
		manager.RegisterFactory(&MockFactory{PType: Transport, PName: "gram2"})

		pluginConf := map[string]any{
			"transport": map[string]any{
				"gram1": map[string]any{
					"tag": "default",
				},
				"gram2": map[string]any{
					"tag": "default", // Duplicate tag
				},
			},
		}

		err := manager.SetupPlugins(pluginConf)
		assert.ErrorIs(t, err, ErrDuplicatePlugin)
	})

	t.Run("ErrorOnMissingFactory", func(t *testing.T) {
		manager := NewManager()

		manager.RegisterFactory(&MockFactory{PType: Transport, PName: "realgram"})

		pluginConf := map[string]any{
			"transport": map[string]any{
				"nonexistent": map[string]any{},
			},
		}
		err := manager.SetupPlugins(pluginConf)
		assert.ErrorIs(t, err, ErrPluginNotFound)
	})

	t.Run("ConfigDecoding", func(t *testing.T) {
		t.Run("SuccessfulDecoding", func(t *testing.T) {
			manager := NewManager()
			manager.RegisterFactory(&MockFactory{PType: Transport, PName: "mockgram"})

			pluginConf := map[string]any{
				"transport": map[string]any{
					"mockgram": map[string]any{
						"Addr": "/run/drvlogd.sock",
					},
				},
			}
			err := manager.SetupPlugins(pluginConf)
			assert.NoError(t, err)
		})

		t.Run("FailedDecoding_InvalidType", func(t *testing.T) {
			manager := NewManager()
			manager.RegisterFactory(&MockFactory{PType: Transport, PName: "mockgram"})

			pluginConf := map[string]any{
				"transport": map[string]any{
					"mockgram": map[string]any{
						"Addr": 123, // Invalid type for string
					},
				},
			}
			err := manager.SetupPlugins(pluginConf)
			assert.ErrorIs(t, err, ErrConfigDecode)
		})

		t.Run("FailedDecoding_InvalidFormat", func(t *testing.T) {
			manager := NewManager()
			manager.RegisterFactory(&MockFactory{PType: Transport, PName: "mockgram"})

			pluginConf := map[string]any{
				"transport": "not-a-map",
			}
			err := manager.SetupPlugins(pluginConf)
			assert.ErrorIs(t, err, ErrInvalidConfigFormat)
		})
	})

	t.Run("PluginsByType", func(t *testing.T) {
		manager := NewManager()
		manager.RegisterFactory(&MockFactory{PType: Transport, PName: "gram1"})
		manager.RegisterFactory(&MockFactory{PType: Transport, PName: "gram2"})

		pluginConf := map[string]any{
			"transport": map[string]any{
				"gram1": map[string]any{},
				"gram2": map[string]any{},
			},
		}
		assert.NoError(t, manager.SetupPlugins(pluginConf))
		assert.Len(t, manager.PluginsByType(Transport), 2)
		assert.Empty(t, manager.PluginsByType(Metrics))
	})

	t.Run("DestroyAll", func(t *testing.T) {
		manager := NewManager()
		f1 := &MockFactory{PType: Transport, PName: "gram1"}
		f2 := &MockFactory{PType: Metrics, PName: "mockreporter"}
		manager.RegisterFactory(f1)
		manager.RegisterFactory(f2)

		pluginConf := map[string]any{
			"transport": map[string]any{
				"gram1": map[string]any{},
			},
			"metrics": map[string]any{
				"mockreporter": map[string]any{},
			},
		}
		assert.NoError(t, manager.SetupPlugins(pluginConf))

		manager.DestroyAll()
		assert.Equal(t, 1, f1.DestroyCount)
		assert.Equal(t, 1, f2.DestroyCount)
		assert.Empty(t, manager.PluginsByType(Transport))

		// Factories stay registered; plugins can be set up again.
		assert.NoError(t, manager.SetupPlugins(pluginConf))
		assert.Len(t, manager.PluginsByType(Metrics), 1)
	})
}
