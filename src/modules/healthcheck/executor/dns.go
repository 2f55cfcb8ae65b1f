package executor

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"github.com/miekg/dns"
)

// DNSExecutor resolves the monitor hostname against the configured resolver
// and formats a type-specific message. The runtime persists the message as
// dns_last_result when it changed.
type DNSExecutor struct{}

func NewDNSExecutor() *DNSExecutor {
	return &DNSExecutor{}
}

var dnsTypes = map[string]uint16{
	"A":     dns.TypeA,
	"AAAA":  dns.TypeAAAA,
	"CNAME": dns.TypeCNAME,
	"CAA":   dns.TypeCAA,
	"MX":    dns.TypeMX,
	"NS":    dns.TypeNS,
	"PTR":   dns.TypePTR,
	"SOA":   dns.TypeSOA,
	"SRV":   dns.TypeSRV,
	"TXT":   dns.TypeTXT,
}

func (e *DNSExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	qtype, ok := dnsTypes[strings.ToUpper(m.DNSResolveType)]
	if !ok {
		return nil, fmt.Errorf("unknown DNS resolve type %q", m.DNSResolveType)
	}

	name := m.Hostname
	if qtype == dns.TypePTR && !strings.HasSuffix(name, ".arpa.") {
		if rev, err := dns.ReverseAddr(name); err == nil {
			name = rev
		}
	}

	port := m.DNSResolvePort
	if port == 0 {
		port = 53
	}
	server := net.JoinHostPort(m.DNSResolveServer, fmt.Sprintf("%d", port))

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	client := new(dns.Client)
	reply, rtt, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, err
	}
	if reply.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("DNS query failed: %s", dns.RcodeToString[reply.Rcode])
	}
	if len(reply.Answer) == 0 {
		return nil, fmt.Errorf("no records found")
	}

	message, err := formatDNSAnswer(qtype, reply.Answer)
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   message,
		Ping:      pingMs(rtt),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}

func formatDNSAnswer(qtype uint16, answers []dns.RR) (string, error) {
	var values []string
	for _, rr := range answers {
		switch rec := rr.(type) {
		case *dns.A:
			values = append(values, rec.A.String())
		case *dns.AAAA:
			values = append(values, rec.AAAA.String())
		case *dns.CNAME:
			values = append(values, rec.Target)
		case *dns.TXT:
			values = append(values, strings.Join(rec.Txt, ""))
		case *dns.PTR:
			values = append(values, rec.Ptr)
		case *dns.NS:
			values = append(values, rec.Ns)
		case *dns.MX:
			values = append(values, fmt.Sprintf("Hostname: %s - Priority: %d", rec.Mx, rec.Preference))
		case *dns.SRV:
			values = append(values, fmt.Sprintf("Name: %s | Port: %d | Priority: %d | Weight: %d",
				rec.Target, rec.Port, rec.Priority, rec.Weight))
		case *dns.SOA:
			return fmt.Sprintf("NS-Name: %s | Hostmaster: %s | Serial: %d | Refresh: %d | Retry: %d | Expire: %d | MinTTL: %d",
				rec.Ns, rec.Mbox, rec.Serial, rec.Refresh, rec.Retry, rec.Expire, rec.Minttl), nil
		case *dns.CAA:
			// only the issue value is reported, other tags are skipped
			if rec.Tag == "issue" {
				return rec.Value, nil
			}
		}
	}

	if len(values) == 0 {
		return "", fmt.Errorf("no records found")
	}

	switch qtype {
	case dns.TypeA, dns.TypeAAAA, dns.TypeTXT, dns.TypePTR:
		return "Records: " + strings.Join(values, " | "), nil
	case dns.TypeCNAME:
		return values[0], nil
	case dns.TypeNS:
		return "Servers: " + strings.Join(values, " | "), nil
	default:
		return strings.Join(values, " | "), nil
	}
}
