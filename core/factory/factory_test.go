package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pacerStub struct {
	Step  time.Duration
	Limit int
}

type pacerConf struct {
	Step  time.Duration `json:"step"`
	Limit int           `json:"limit"`
}

func newPacerStub(conf map[string]any) (*pacerStub, error) {
	var c pacerConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &pacerStub{Step: c.Step, Limit: c.Limit}, nil
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*pacerStub]()
	require.NoError(t, reg.Register("stub", newPacerStub))

	p, err := reg.Create(ModuleConfig{Type: "stub", Conf: map[string]any{"step": "90s", "limit": "12"}})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, p.Step)
	assert.Equal(t, 12, p.Limit)
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[*pacerStub]()
	require.NoError(t, reg.Register("stub", newPacerStub))

	assert.ErrorContains(t, reg.Register("stub", newPacerStub), "already registered")
	assert.ErrorContains(t, reg.Register("other", nil), "factory nil")
	_, err := reg.Create(ModuleConfig{Type: "wallclock"})
	assert.ErrorContains(t, err, "unknown module type wallclock")

	_, err = reg.Create(ModuleConfig{Type: "stub", Conf: map[string]any{"step": "soon"}})
	assert.Error(t, err)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[*pacerStub]()
	require.NoError(t, reg.Register("simulated", newPacerStub))
	require.NoError(t, reg.Register("clock", newPacerStub))
	assert.Equal(t, []string{"clock", "simulated"}, reg.Names())
}
