package setting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const (
	KeyTLSExpiryNotifyDays = "tlsExpiryNotifyDays"
	KeyKeepDataPeriodDays  = "keepDataPeriodDays"
	KeyServerTimezone      = "serverTimezone"
)

// Defaults applied when a key has never been written.
var (
	DefaultTLSExpiryNotifyDays = []int{7, 14, 21}
	DefaultKeepDataPeriodDays  = 180
)

type Model struct {
	bun.BaseModel `bun:"table:settings,alias:s"`

	Key       string `bun:"key,pk"`
	Value     string `bun:"value"`
	Namespace string `bun:"namespace"`
}

type Service interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, namespace string) error
	GetInt(ctx context.Context, key string, def int) int
	GetIntSlice(ctx context.Context, key string, def []int) []int
}

type service struct {
	db     *bun.DB
	logger *zap.SugaredLogger
}

func NewService(db *bun.DB, logger *zap.SugaredLogger) Service {
	return &service{db: db, logger: logger.With("service", "[setting]")}
}

func (s *service) Get(ctx context.Context, key string) (string, error) {
	m := new(Model)
	err := s.db.NewSelect().Model(m).Where("s.key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

func (s *service) Set(ctx context.Context, key, value, namespace string) error {
	m := &Model{Key: key, Value: value, Namespace: namespace}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	return err
}

func (s *service) GetInt(ctx context.Context, key string, def int) int {
	raw, err := s.Get(ctx, key)
	if err != nil || raw == "" {
		return def
	}
	var n int
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		s.logger.Warnf("setting %s is not an int: %v", key, err)
		return def
	}
	return n
}

func (s *service) GetIntSlice(ctx context.Context, key string, def []int) []int {
	raw, err := s.Get(ctx, key)
	if err != nil || raw == "" {
		return def
	}
	var ns []int
	if err := json.Unmarshal([]byte(raw), &ns); err != nil {
		s.logger.Warnf("setting %s is not an int list: %v", key, err)
		return def
	}
	return ns
}
