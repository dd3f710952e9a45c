package bridge_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/bridge"
	"github.com/vorgateway/gateway/pkg/contracts"
)

const sampleDocument = `<acceptance_ruleset><key_personnel_present><current_value>true</current_value><required_value>true</required_value></key_personnel_present></acceptance_ruleset>`

func TestAttachAffectedEndpoints(t *testing.T) {
	out, err := bridge.AttachAffectedEndpoints([]byte(sampleDocument), []contracts.AffectedEndpoint{
		{EndpointID: "motor_MotorSpeed_SP"},
		{EndpointID: "pump_PumpRate_SP"},
	})
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(s), "</acceptance_ruleset>"))
	assert.Contains(t, s, "<affected_endpoints>")
	assert.Contains(t, s, "motor_MotorSpeed_SP")
	assert.Contains(t, s, "pump_PumpRate_SP")
}

func TestClient_ProcessXML_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "/process_xml", r.URL.Path)
		w.Header().Set("Content-Type", "application/xml")
		w.Write(body)
	}))
	defer server.Close()

	client := bridge.NewClient(server.URL, nil)
	resp, err := client.ProcessXML(context.Background(), []byte(sampleDocument))
	require.NoError(t, err)
	assert.Equal(t, sampleDocument, string(resp))
}

func TestClient_ProcessXML_NonOKRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<error>boom</error>"))
	}))
	defer server.Close()

	client := bridge.NewClient(server.URL, nil)
	_, err := client.ProcessXML(context.Background(), []byte(sampleDocument))
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrConnectionLost)
}
