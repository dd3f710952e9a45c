package addressspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vorgateway/gateway/pkg/addressspace"
	"github.com/vorgateway/gateway/pkg/contracts"
)

func TestSplitName(t *testing.T) {
	gl := addressspace.SplitName("Ecotec:AM13 Volumenstrom 2")
	assert.Equal(t, "Ecotec", gl.Group)
	assert.Equal(t, "AM13 Volumenstrom 2", gl.Leaf)

	gl = addressspace.SplitName("NoColonName")
	assert.Equal(t, "", gl.Group)
	assert.Equal(t, "NoColonName", gl.Leaf)
}

func TestProjector_ReconcileAddsNewAndUpdatesExisting(t *testing.T) {
	p := addressspace.NewProjector()

	added, updated := p.Reconcile(contracts.Snapshot{
		"Ecotec:Flow": {Value: 10, Type: "u16"},
	})
	assert.Equal(t, []string{"Ecotec:Flow"}, added)
	assert.Empty(t, updated)

	added, updated = p.Reconcile(contracts.Snapshot{
		"Ecotec:Flow":  {Value: 20, Type: "u16"},
		"Ecotec:Speed": {Value: 900, Type: "u16"},
	})
	assert.Equal(t, []string{"Ecotec:Speed"}, added)
	assert.Equal(t, []string{"Ecotec:Flow"}, updated)

	node, ok := p.Get("Ecotec:Flow")
	assert.True(t, ok)
	assert.Equal(t, 20, node.Value)
}

func TestProjector_NeverRemovesNodes(t *testing.T) {
	p := addressspace.NewProjector()
	p.Reconcile(contracts.Snapshot{"A:B": {Value: 1, Type: "u16"}})
	p.Reconcile(contracts.Snapshot{}) // subsequent snapshot omits A:B entirely

	_, ok := p.Get("A:B")
	assert.True(t, ok, "a node absent from a later snapshot must not be removed")
}

func TestToEndpoint(t *testing.T) {
	ep, err := addressspace.ToEndpoint("plc1", "MotorSpeed_SP", contracts.KindU16, uint16(900))
	assert.NoError(t, err)
	assert.Equal(t, uint16(900), ep.Value)

	_, err = addressspace.ToEndpoint("plc1", "X", contracts.EndpointKind("nonsense"), 1)
	assert.Error(t, err)
}
