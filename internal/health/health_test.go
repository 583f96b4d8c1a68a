package health

import (
	"context"
	"errors"
	"testing"

	"market-admin/internal/realtime"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckBasic(t *testing.T) {
	if s := NewHealthChecker(pinger{}, nil, nil).CheckBasic(context.Background()); s.Status != "healthy" {
		t.Errorf("status = %s", s.Status)
	}
	s := NewHealthChecker(pinger{err: errors.New("down")}, nil, nil).CheckBasic(context.Background())
	if s.Status != "unhealthy" || s.Database.Status != "unhealthy" {
		t.Errorf("status = %+v", s)
	}
}

func TestCheckDetailed(t *testing.T) {
	rt := func() realtime.Status { return realtime.Status{Status: realtime.StatusSubscribed, Listening: true, Clients: 2} }
	d := NewHealthChecker(pinger{}, nil, rt).CheckDetailed(context.Background())
	if d.Redis != "disabled" {
		t.Errorf("redis = %s", d.Redis)
	}
	if d.Realtime == nil || d.Realtime.Clients != 2 {
		t.Errorf("realtime = %+v", d.Realtime)
	}
	if d.Pool != nil {
		t.Error("pool stats need a pool")
	}
}
