package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/types"
)

func TestRunSuspensionIsolatesFailures(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	r1 := createRouter(t, st, tenant, "10.0.0.1")
	r2 := createRouter(t, st, tenant, "10.0.0.2")

	due := time.Now().Add(-72 * time.Hour)
	c1 := createCustomer(t, st, tenant, plan, r1, "budi01")
	c2 := createCustomer(t, st, tenant, plan, r2, "siti02")
	c3 := createCustomer(t, st, tenant, plan, r1, "agus03")
	createInvoice(t, st, c1, 150045, due)
	createInvoice(t, st, c2, 150046, due)
	createInvoice(t, st, c3, 150047, due)

	healthy := &fakeRouter{}
	dead := &fakeRouter{connectErr: errors.New("connection refused")}
	engine := testEngine(t, st, map[string]*fakeRouter{
		"10.0.0.1": healthy,
		"10.0.0.2": dead,
	}, nil)

	res, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Outcomes, 3)

	// One unreachable router never blocks the others, and every customer
	// transitions regardless of its device outcome.
	for _, c := range []*model.Customer{c1, c2, c3} {
		assert.Equal(t, model.CustomerIsolir, customerStatus(t, st, c.ID))
	}
	assert.Equal(t, "ISOLIR_PROFILE", healthy.lastProfile("budi01"))
	assert.Equal(t, "ISOLIR_PROFILE", healthy.lastProfile("agus03"))

	byID := map[string]types.SyncOutcome{}
	for _, o := range res.Outcomes {
		byID[o.CustomerID] = o
	}
	assert.Contains(t, byID[c1.ID.String()].Status, "Router Sync: OK")
	assert.Contains(t, byID[c2.ID.String()].Status, "SERVER-ONLY")
	assert.False(t, byID[c2.ID.String()].Synced)
}

func TestRunSuspensionBoundsHungDevice(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "budi01")
	createInvoice(t, st, cust, 150045, time.Now().Add(-24*time.Hour))

	// The session opens fine, then the command stalls far past the element
	// budget. The run must return within the bound, report the element as
	// server-only and still commit the billing transition.
	hung := &fakeRouter{delay: 2 * time.Second}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": hung}, nil)

	start := time.Now()
	res, err := engine.RunSuspension(context.Background())
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, time.Second, "batch stalled %v behind a hung command", elapsed)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, model.CustomerIsolir, customerStatus(t, st, cust.ID))
}

func TestRunSuspensionIdempotent(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "budi01")
	createInvoice(t, st, cust, 150045, time.Now().Add(-24*time.Hour))

	fake := &fakeRouter{}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": fake}, nil)

	first, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)
	second, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)

	// The invoice stays UNPAID, so the second sweep re-selects the same
	// customer and re-applies the same profile without harm.
	assert.Equal(t, first.Succeeded, second.Succeeded)
	assert.Equal(t, model.CustomerIsolir, customerStatus(t, st, cust.ID))
	assert.Equal(t, []string{"ISOLIR_PROFILE", "ISOLIR_PROFILE"}, fake.profiles["budi01"])
}

func TestRunSuspensionHotspotIsBillingOnly(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Hotspot-5M", "5M/5M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "voucher88")
	st.DB().Model(cust).Update("type", types.SubscriptionHotspot)
	createInvoice(t, st, cust, 50011, time.Now().Add(-24*time.Hour))

	fake := &fakeRouter{}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": fake}, nil)

	res, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 1)
	assert.True(t, res.Outcomes[0].Synced)
	assert.Contains(t, res.Outcomes[0].Status, "voucher-managed")
	assert.Equal(t, model.CustomerIsolir, customerStatus(t, st, cust.ID))
	assert.Zero(t, fake.connectCalls, "hotspot suspension must not touch the router")
}

func TestRunSuspensionTenantFallbackRouter(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, nil, "budi01")
	createInvoice(t, st, cust, 150045, time.Now().Add(-24*time.Hour))

	fake := &fakeRouter{}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": fake}, nil)

	res, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 1)
	assert.True(t, res.Outcomes[0].Synced)
	assert.True(t, strings.Contains(res.Outcomes[0].Status, "tenant-default router"),
		"fallback must be flagged in the outcome: %q", res.Outcomes[0].Status)
	assert.Equal(t, "ISOLIR_PROFILE", fake.lastProfile("budi01"))
}

func TestRunSuspensionTenantProfileOverride(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	st.DB().Model(tenant).Update("isolir_profile", "WALLED_GARDEN")
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "budi01")
	createInvoice(t, st, cust, 150045, time.Now().Add(-24*time.Hour))

	fake := &fakeRouter{}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": fake}, nil)

	_, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WALLED_GARDEN", fake.lastProfile("budi01"))
}

func TestRunSuspensionSkipsFutureInvoices(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "budi01")
	createInvoice(t, st, cust, 150045, time.Now().Add(7*24*time.Hour))

	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": {}}, nil)
	res, err := engine.RunSuspension(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Outcomes)
	assert.Equal(t, model.CustomerActive, customerStatus(t, st, cust.ID))
}

func TestThrottle(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "budi01")

	fake := &fakeRouter{}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": fake}, nil)

	synced, err := engine.Throttle(context.Background(), cust.ID, router.ID, "2M/2M")
	require.NoError(t, err)
	assert.True(t, synced)
	assert.Equal(t, []string{"2M/2M"}, fake.queues["budi01"])
}

func TestThrottleDeviceFailureIsNotAnError(t *testing.T) {
	st := setupTestStore(t)
	tenant := createTenant(t, st)
	plan := createPlan(t, st, tenant, "Home-10M", "10M/10M")
	router := createRouter(t, st, tenant, "10.0.0.1")
	cust := createCustomer(t, st, tenant, plan, router, "budi01")

	fake := &fakeRouter{connectErr: errors.New("timeout")}
	engine := testEngine(t, st, map[string]*fakeRouter{"10.0.0.1": fake}, nil)

	synced, err := engine.Throttle(context.Background(), cust.ID, router.ID, "2M/2M")
	require.NoError(t, err)
	assert.False(t, synced)
}
