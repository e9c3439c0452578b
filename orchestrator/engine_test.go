package orchestrator

import (
	"fmt"
	"sync"
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
	"github.com/servicex-id/netops/store"
	"github.com/servicex-id/netops/types"
)

func setupTestStore(t *testing.T) *store.Store {
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
	return st
}

func testConfig() *config.Config {
	return &config.Config{
		DeviceTimeout: 100 * time.Millisecond,
		WorkerLimit:   4,
		IsolirProfile: "ISOLIR_PROFILE",
	}
}

// testEngine wires an engine whose device dialers hand out fakes keyed by
// endpoint host.
func testEngine(t *testing.T, st *store.Store, routers map[string]*fakeRouter, olts map[string]*fakeOlt) *Engine {
	t.Helper()
	e := New(st, testConfig(), zerolog.Nop())
	e.RouterDial = func(ep types.DeviceEndpoint) RouterClient {
		if r, ok := routers[ep.Host]; ok {
			return r
		}
		return &fakeRouter{connectErr: fmt.Errorf("no fake for %s", ep.Host)}
	}
	e.OltDial = func(ep types.DeviceEndpoint) OltClient {
		if o, ok := olts[ep.Host]; ok {
			return o
		}
		return &fakeOlt{connectErr: fmt.Errorf("no fake for %s", ep.Host)}
	}
	return e
}

// fakeRouter records profile and queue writes per username. A non-zero
// delay makes every write stall first, simulating a device that accepts
// the session and then hangs mid-command.
type fakeRouter struct {
	mu         sync.Mutex
	connectErr error
	profileErr error
	queueErr   error
	delay      time.Duration

	profiles     map[string][]string
	queues       map[string][]string
	connectCalls int
}

func (f *fakeRouter) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	return f.connectErr
}

func (f *fakeRouter) Disconnect() {}

func (f *fakeRouter) SetPppoeProfile(username, profile string) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return f.profileErr
	}
	if f.profiles == nil {
		f.profiles = make(map[string][]string)
	}
	f.profiles[username] = append(f.profiles[username], profile)
	return nil
}

func (f *fakeRouter) SetSimpleQueue(username, maxLimit string) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queueErr != nil {
		return f.queueErr
	}
	if f.queues == nil {
		f.queues = make(map[string][]string)
	}
	f.queues[username] = append(f.queues[username], maxLimit)
	return nil
}

func (f *fakeRouter) ActivePppoeSessions() ([]routeros.Session, error) {
	return []routeros.Session{{Name: "budi01", Address: "10.10.0.5"}}, nil
}

func (f *fakeRouter) ActiveHotspotSessions() ([]routeros.Session, error) {
	return nil, nil
}

func (f *fakeRouter) Interfaces() ([]routeros.Interface, error) {
	return []routeros.Interface{{Name: "ether1-wan", Running: true}}, nil
}

func (f *fakeRouter) SystemResource() (routeros.SystemResource, error) {
	return routeros.SystemResource{CPULoad: 12, BoardName: "CCR2004"}, nil
}

func (f *fakeRouter) TrafficRate(string) (routeros.TrafficRate, error) {
	return routeros.TrafficRate{RxBitsPerSecond: 1 << 25, TxBitsPerSecond: 1 << 23}, nil
}

func (f *fakeRouter) lastProfile(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ps := f.profiles[username]
	if len(ps) == 0 {
		return ""
	}
	return ps[len(ps)-1]
}

// fakeOlt records provisioned serials.
type fakeOlt struct {
	mu           sync.Mutex
	connectErr   error
	provisionErr error
	provisioned  []string
	reading      types.OpticalReading
}

func (f *fakeOlt) Connect() error {
	return f.connectErr
}

func (f *fakeOlt) Disconnect() {}

func (f *fakeOlt) ExecuteCommand(command string) (string, error) {
	return "", nil
}

func (f *fakeOlt) ProvisionOnu(port, serial, lineProfile, srvProfile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.provisionErr != nil {
		return f.provisionErr
	}
	f.provisioned = append(f.provisioned, serial)
	return nil
}

func (f *fakeOlt) GetOpticalPower(port, onuID string, losOverride float64) types.OpticalReading {
	return f.reading
}

// Fixture builders.

func createTenant(t *testing.T, st *store.Store) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: "Demo ISP", Domain: uuid.NewString() + ".example.id"}
	if err := st.DB().Create(tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant
}

func createRouter(t *testing.T, st *store.Store, tenant *model.Tenant, ip string) *model.Router {
	t.Helper()
	r := &model.Router{TenantID: tenant.ID, Name: "BRAS-" + ip, IPAddress: ip, APIPort: 8728}
	if err := st.DB().Create(r).Error; err != nil {
		t.Fatalf("create router: %v", err)
	}
	return r
}

func createOlt(t *testing.T, st *store.Store, tenant *model.Tenant, ip string) *model.OltDevice {
	t.Helper()
	o := &model.OltDevice{TenantID: tenant.ID, Name: "OLT-" + ip, IPAddress: ip, Vendor: types.VendorZTE}
	if err := st.DB().Create(o).Error; err != nil {
		t.Fatalf("create olt: %v", err)
	}
	return o
}

func createPlan(t *testing.T, st *store.Store, tenant *model.Tenant, name, bandwidth string) *model.ServicePlan {
	t.Helper()
	p := &model.ServicePlan{TenantID: tenant.ID, Name: name, Bandwidth: bandwidth, Price: 150000}
	if err := st.DB().Create(p).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return p
}

func createCustomer(t *testing.T, st *store.Store, tenant *model.Tenant, plan *model.ServicePlan, router *model.Router, username string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		TenantID: tenant.ID,
		Name:     "Cust " + username,
		Username: username,
		Type:     types.SubscriptionPPPoE,
		Status:   model.CustomerActive,
	}
	if plan != nil {
		c.PlanID = &plan.ID
	}
	if router != nil {
		c.RouterID = &router.ID
	}
	if err := st.DB().Create(c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func createInvoice(t *testing.T, st *store.Store, cust *model.Customer, amount float64, due time.Time) *model.Invoice {
	t.Helper()
	inv := &model.Invoice{
		TenantID:   cust.TenantID,
		CustomerID: cust.ID,
		Amount:     amount,
		Status:     model.InvoiceUnpaid,
		DueDate:    due,
	}
	if err := st.DB().Create(inv).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}

func customerStatus(t *testing.T, st *store.Store, id uuid.UUID) string {
	t.Helper()
	var c model.Customer
	if err := st.DB().First(&c, "id = ?", id).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return c.Status
}

func invoiceStatus(t *testing.T, st *store.Store, id uuid.UUID) string {
	t.Helper()
	var inv model.Invoice
	if err := st.DB().First(&inv, "id = ?", id).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	return inv.Status
}
