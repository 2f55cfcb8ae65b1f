package executor

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// rawCodec passes request/response bytes through untouched so arbitrary
// methods can be invoked without their generated stubs.
type rawCodec struct{}

type rawMessage struct{ data []byte }

func (rawCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(*rawMessage)
	if !ok {
		return nil, fmt.Errorf("rawCodec: unexpected type %T", v)
	}
	return msg.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(*rawMessage)
	if !ok {
		return fmt.Errorf("rawCodec: unexpected type %T", v)
	}
	msg.data = data
	return nil
}

func (rawCodec) Name() string { return encoding.GetCodec("proto").Name() }

// GRPCKeywordExecutor performs a unary call and applies the keyword match
// against the raw response rendered as a string.
type GRPCKeywordExecutor struct{}

func NewGRPCKeywordExecutor() *GRPCKeywordExecutor {
	return &GRPCKeywordExecutor{}
}

func (e *GRPCKeywordExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	creds := insecure.NewCredentials()
	if m.GRPCEnableTLS {
		creds = credentials.NewTLS(&tls.Config{InsecureSkipVerify: m.IgnoreTLS})
	}

	conn, err := grpc.NewClient(m.GRPCURL,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	fullMethod := fmt.Sprintf("/%s/%s", m.GRPCService, m.GRPCMethod)
	req := &rawMessage{data: []byte(m.GRPCBody)}
	resp := new(rawMessage)

	if err := conn.Invoke(ctx, fullMethod, req, resp); err != nil {
		return nil, err
	}

	body := string(resp.data)
	contains := strings.Contains(body, m.Keyword)
	if contains == m.InvertKeyword {
		if m.InvertKeyword {
			return nil, fmt.Errorf("keyword %q is present in response", m.Keyword)
		}
		return nil, fmt.Errorf("keyword %q not found in response", m.Keyword)
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   fmt.Sprintf("grpc call ok, keyword %q %s", m.Keyword, keywordState(m.InvertKeyword)),
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
