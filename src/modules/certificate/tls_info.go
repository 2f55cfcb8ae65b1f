package certificate

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"strings"
	"time"
)

// CertInfo describes one certificate in a captured chain. IssuerCertificate
// links toward the root.
type CertInfo struct {
	SubjectCN         string    `json:"subject_cn"`
	IssuerCN          string    `json:"issuer_cn"`
	CertType          string    `json:"cert_type"`
	Fingerprint256    string    `json:"fingerprint256"`
	ValidFrom         time.Time `json:"valid_from"`
	ValidTo           time.Time `json:"valid_to"`
	DaysRemaining     int       `json:"days_remaining"`
	Valid             bool      `json:"valid"`
	IssuerCertificate *CertInfo `json:"issuer_certificate,omitempty"`
}

// TLSInfo is the payload stored per monitor and pushed on the live bus.
type TLSInfo struct {
	Valid    bool      `json:"valid"`
	CertInfo *CertInfo `json:"cert_info,omitempty"`
}

// Fingerprint256 renders the SHA-256 of the DER certificate in the colon
// separated upper-case form used for dedup identity.
func Fingerprint256(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	hexs := strings.ToUpper(hex.EncodeToString(sum[:]))
	parts := make([]string, 0, len(hexs)/2)
	for i := 0; i < len(hexs); i += 2 {
		parts = append(parts, hexs[i:i+2])
	}
	return strings.Join(parts, ":")
}

func daysRemaining(until time.Time, now time.Time) int {
	return int(until.Sub(now).Hours() / 24)
}

func certType(cert *x509.Certificate, isLeaf bool) string {
	if isLeaf {
		return "server"
	}
	if cert.Subject.String() == cert.Issuer.String() {
		return "root CA"
	}
	return "intermediate CA"
}

// BuildTLSInfo captures the verified peer chain of a completed handshake.
func BuildTLSInfo(state *tls.ConnectionState) *TLSInfo {
	if state == nil || len(state.PeerCertificates) == 0 {
		return &TLSInfo{Valid: false}
	}

	now := time.Now().UTC()
	var head, prev *CertInfo
	for i, cert := range state.PeerCertificates {
		info := &CertInfo{
			SubjectCN:      cert.Subject.CommonName,
			IssuerCN:       cert.Issuer.CommonName,
			CertType:       certType(cert, i == 0),
			Fingerprint256: Fingerprint256(cert),
			ValidFrom:      cert.NotBefore,
			ValidTo:        cert.NotAfter,
			DaysRemaining:  daysRemaining(cert.NotAfter, now),
			Valid:          now.After(cert.NotBefore) && now.Before(cert.NotAfter),
		}
		if head == nil {
			head = info
		} else {
			prev.IssuerCertificate = info
		}
		prev = info
	}

	return &TLSInfo{Valid: head.Valid, CertInfo: head}
}
