package certificate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/monitor_tls_info"
	"vigilo/src/modules/notification_sent_history"
	"vigilo/src/modules/setting"

	"go.uber.org/zap"
)

// Notifier sends a rendered message to every provider configured for the
// monitor. Provider failures are the notifier's problem, not ours.
type Notifier interface {
	SendForMonitor(ctx context.Context, monitorID, msg string) error
}

type Service interface {
	// UpdateTLSInfo replaces the stored chain for the monitor. When the leaf
	// fingerprint changed, cert-expiry dedup rows are erased so thresholds
	// fire again for the new certificate.
	UpdateTLSInfo(ctx context.Context, monitorID string, info *TLSInfo) error

	// CheckCertificateExpiry evaluates the expiry thresholds against every
	// cert in the chain (skipping root CAs) and sends at most one
	// notification per (monitor, threshold) between fingerprint changes.
	CheckCertificateExpiry(ctx context.Context, mon *monitor.Model, info *TLSInfo) error
}

type service struct {
	tlsInfoSvc monitor_tls_info.Service
	historySvc notification_sent_history.Service
	settingSvc setting.Service
	notifier   Notifier
	logger     *zap.SugaredLogger
}

func NewService(
	tlsInfoSvc monitor_tls_info.Service,
	historySvc notification_sent_history.Service,
	settingSvc setting.Service,
	notifier Notifier,
	logger *zap.SugaredLogger,
) Service {
	return &service{
		tlsInfoSvc: tlsInfoSvc,
		historySvc: historySvc,
		settingSvc: settingSvc,
		notifier:   notifier,
		logger:     logger.With("service", "[certificate]"),
	}
}

func (s *service) UpdateTLSInfo(ctx context.Context, monitorID string, info *TLSInfo) error {
	if info == nil || info.CertInfo == nil {
		return nil
	}

	prev, err := s.tlsInfoSvc.FindByMonitorID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("find tls info: %w", err)
	}

	if prev != nil {
		var old TLSInfo
		if err := json.Unmarshal([]byte(prev.InfoJSON), &old); err == nil &&
			old.CertInfo != nil &&
			old.CertInfo.Fingerprint256 != info.CertInfo.Fingerprint256 {
			s.logger.Infof("certificate changed for monitor %s, resetting expiry notifications", monitorID)
			if err := s.historySvc.DeleteByTypeAndMonitor(ctx, notification_sent_history.HistoryTypeCertificate, monitorID); err != nil {
				return fmt.Errorf("reset sent history: %w", err)
			}
		}
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal tls info: %w", err)
	}
	return s.tlsInfoSvc.Upsert(ctx, monitorID, string(raw))
}

func (s *service) CheckCertificateExpiry(ctx context.Context, mon *monitor.Model, info *TLSInfo) error {
	if info == nil || info.CertInfo == nil {
		return nil
	}
	if mon.IgnoreTLS || !mon.ExpiryNotification {
		return nil
	}

	thresholds := append([]int(nil), s.settingSvc.GetIntSlice(ctx, setting.KeyTLSExpiryNotifyDays, setting.DefaultTLSExpiryNotifyDays)...)
	// Widest threshold first: the dedup check is "any row with days <= t", so
	// ascending order would let the first row swallow the wider thresholds.
	sort.Sort(sort.Reverse(sort.IntSlice(thresholds)))

	for cert := info.CertInfo; cert != nil; cert = cert.IssuerCertificate {
		if cert.CertType == "root CA" {
			continue
		}
		for _, t := range thresholds {
			if cert.DaysRemaining > t {
				continue
			}
			sent, err := s.historySvc.Exists(ctx, notification_sent_history.HistoryTypeCertificate, mon.ID, t)
			if err != nil {
				return fmt.Errorf("check sent history: %w", err)
			}
			if sent {
				continue
			}

			msg := fmt.Sprintf("[%s][%s] %s certificate %s will be expired in %d days",
				mon.Name, mon.URL, cert.CertType, cert.SubjectCN, cert.DaysRemaining)
			if err := s.notifier.SendForMonitor(ctx, mon.ID, msg); err != nil {
				s.logger.Errorf("cert expiry notification for monitor %s: %v", mon.ID, err)
				continue
			}
			if err := s.historySvc.Record(ctx, notification_sent_history.HistoryTypeCertificate, mon.ID, t); err != nil {
				return fmt.Errorf("record sent history: %w", err)
			}
		}
	}
	return nil
}
