package executor

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"vigilo/src/modules/monitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedPEM(t *testing.T) (certPEM, keyPEM string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "daemon-client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

func TestDockerClientBuildsTLSFromPEM(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t)

	m := &monitor.Model{
		ID: "m1", Type: "docker",
		DockerHost: "tcp://127.0.0.1:2376", DockerTLS: true,
		TLSCert: certPEM, TLSKey: keyPEM, TLSCa: certPEM,
	}

	cli, err := NewDockerExecutor().newClient(m)
	require.NoError(t, err, "PEM material must not be treated as file paths")
	defer cli.Close()
	assert.Equal(t, "tcp://127.0.0.1:2376", cli.DaemonHost())
}

func TestDockerClientRejectsBadCA(t *testing.T) {
	m := &monitor.Model{
		ID: "m1", Type: "docker",
		DockerHost: "tcp://127.0.0.1:2376", DockerTLS: true,
		TLSCa: "not a certificate",
	}

	_, err := NewDockerExecutor().newClient(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA bundle")
}
