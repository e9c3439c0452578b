package webhook

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/servicex-id/netops/config"
	"github.com/servicex-id/netops/drivers/routeros"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/orchestrator"
	"github.com/servicex-id/netops/store"
	"github.com/servicex-id/netops/types"
)

// deadRouter simulates an unreachable access router. Handlers must still
// succeed: the database is authoritative and device sync is best-effort.
type deadRouter struct{}

func (deadRouter) Connect() error                      { return errors.New("connection refused") }
func (deadRouter) Disconnect()                         {}
func (deadRouter) SetPppoeProfile(_, _ string) error   { return errors.New("not connected") }
func (deadRouter) SetSimpleQueue(_, _ string) error    { return errors.New("not connected") }
func (deadRouter) ActivePppoeSessions() ([]routeros.Session, error) {
	return nil, errors.New("not connected")
}
func (deadRouter) ActiveHotspotSessions() ([]routeros.Session, error) {
	return nil, errors.New("not connected")
}
func (deadRouter) Interfaces() ([]routeros.Interface, error) {
	return nil, errors.New("not connected")
}
func (deadRouter) SystemResource() (routeros.SystemResource, error) {
	return routeros.SystemResource{}, errors.New("not connected")
}
func (deadRouter) TrafficRate(string) (routeros.TrafficRate, error) {
	return routeros.TrafficRate{}, errors.New("not connected")
}

type deadOlt struct{}

func (deadOlt) Connect() error                                 { return errors.New("ssh: handshake failed") }
func (deadOlt) Disconnect()                                    {}
func (deadOlt) ExecuteCommand(string) (string, error)          { return "", errors.New("not connected") }
func (deadOlt) ProvisionOnu(_, _, _, _ string) error           { return errors.New("not connected") }
func (deadOlt) GetOpticalPower(_, _ string, _ float64) types.OpticalReading {
	return types.OpticalReading{Alarm: types.AlarmUnreachable}
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	st := store.NewWithDB(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		DeviceTimeout: 50 * time.Millisecond,
		WorkerLimit:   2,
		IsolirProfile: "ISOLIR_PROFILE",
	}
	engine := orchestrator.New(st, cfg, zerolog.Nop())
	engine.RouterDial = func(types.DeviceEndpoint) orchestrator.RouterClient { return deadRouter{} }
	engine.OltDial = func(types.DeviceEndpoint) orchestrator.OltClient { return deadOlt{} }

	srv := httptest.NewServer(New(engine, cfg, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func seedCustomer(t *testing.T, st *store.Store, phone string) (*model.Tenant, *model.Customer) {
	t.Helper()
	tenant := &model.Tenant{Name: "Demo ISP", Domain: uuid.NewString() + ".example.id"}
	if err := st.DB().Create(tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	plan := &model.ServicePlan{TenantID: tenant.ID, Name: "Home-10M", Bandwidth: "10M/10M"}
	if err := st.DB().Create(plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	cust := &model.Customer{
		TenantID: tenant.ID,
		Name:     "Budi Santoso",
		Username: "budi01",
		Phone:    phone,
		Status:   model.CustomerActive,
		PlanID:   &plan.ID,
	}
	if err := st.DB().Create(cust).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return tenant, cust
}
