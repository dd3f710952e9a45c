package driver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/driver"
)

type fakeRegisterTransport struct {
	connectErr error
	coil       bool
	holding    uint16
}

func (f *fakeRegisterTransport) Connect(ctx context.Context) error { return f.connectErr }
func (f *fakeRegisterTransport) Close() error                      { return nil }
func (f *fakeRegisterTransport) ReadCoil(address, quantity int) (bool, error) {
	return f.coil, nil
}
func (f *fakeRegisterTransport) ReadDiscreteInput(address, quantity int) (bool, error) {
	return f.coil, nil
}
func (f *fakeRegisterTransport) ReadHoldingRegister(address, quantity int) (uint16, error) {
	return f.holding, nil
}

func TestRegisterDriver_ReadTyped_Coil(t *testing.T) {
	transport := &fakeRegisterTransport{coil: true}
	d := driver.NewRegisterDriver("plc1", transport, map[string]driver.RegisterEndpointConfig{
		"MotorRunning": {Name: "MotorRunning", Function: driver.FuncReadCoil, Address: 10, Quantity: 1, BitOffset: -1},
	})

	ep, err := d.ReadTyped(context.Background(), "MotorRunning")
	require.NoError(t, err)
	assert.Equal(t, true, ep.Value)
	assert.Equal(t, "plc1", ep.ServerAlias)
	assert.True(t, d.Healthy())
}

func TestRegisterDriver_ReadTyped_HoldingRegisterBitOffset(t *testing.T) {
	transport := &fakeRegisterTransport{holding: 0b0000_0100} // bit 2 set
	d := driver.NewRegisterDriver("plc1", transport, map[string]driver.RegisterEndpointConfig{
		"Alarm": {Name: "Alarm", Function: driver.FuncReadHoldingReg, Address: 20, Quantity: 1, BitOffset: 2},
	})

	ep, err := d.ReadTyped(context.Background(), "Alarm")
	require.NoError(t, err)
	assert.Equal(t, true, ep.Value)
}

func TestRegisterDriver_ReadTyped_HoldingRegisterWhole(t *testing.T) {
	transport := &fakeRegisterTransport{holding: 900}
	d := driver.NewRegisterDriver("plc1", transport, map[string]driver.RegisterEndpointConfig{
		"MotorSpeed_SP": {Name: "MotorSpeed_SP", Function: driver.FuncReadHoldingReg, Address: 30, Quantity: 1, BitOffset: -1},
	})

	ep, err := d.ReadTyped(context.Background(), "MotorSpeed_SP")
	require.NoError(t, err)
	assert.Equal(t, uint16(900), ep.Value)
}

func TestRegisterDriver_UnknownEndpoint(t *testing.T) {
	d := driver.NewRegisterDriver("plc1", &fakeRegisterTransport{}, map[string]driver.RegisterEndpointConfig{})
	_, err := d.ReadTyped(context.Background(), "Nonexistent")
	assert.Error(t, err)
}

func TestRegisterDriver_ReconnectCooldown(t *testing.T) {
	transport := &fakeRegisterTransport{connectErr: errors.New("refused")}
	d := driver.NewRegisterDriver("plc1", transport, nil)

	err1 := d.Open(context.Background())
	assert.Error(t, err1)

	// Second attempt within the cooldown window should also fail fast
	// without a new transport.Connect call succeeding (still configured to
	// fail, so we only assert it still returns an error — the cooldown
	// itself is exercised by the rate limiter's Allow() returning false on
	// rapid repeated calls).
	err2 := d.Open(context.Background())
	assert.Error(t, err2)
}
