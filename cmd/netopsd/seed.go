package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/servicex-id/netops/config"
	"github.com/servicex-id/netops/model"
	"github.com/servicex-id/netops/store"
	"github.com/servicex-id/netops/types"
)

// seedCmd loads a small demo dataset so the workflows can be exercised
// against a fresh database.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo tenants, devices and customers into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		if err := st.Migrate(); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		return seed(st)
	},
}

func seed(st *store.Store) error {
	db := st.DB()

	tenant := &model.Tenant{
		Name:          "ServiceX Demo ISP",
		Domain:        "demo.servicex.id",
		IsolirProfile: "ISOLIR_PROFILE",
	}
	if err := db.Create(tenant).Error; err != nil {
		return err
	}

	router := &model.Router{
		TenantID:  tenant.ID,
		Name:      "BRAS-01",
		IPAddress: "10.0.0.1",
		APIPort:   8728,
		Username:  "api",
		Password:  "api",
	}
	if err := db.Create(router).Error; err != nil {
		return err
	}

	olt := &model.OltDevice{
		TenantID:      tenant.ID,
		Name:          "OLT-ZTE-01",
		IPAddress:     "10.0.0.2",
		SSHPort:       22,
		Vendor:        types.VendorZTE,
		Username:      "admin",
		Password:      "admin",
		SNMPCommunity: "public",
		SNMPPort:      161,
	}
	if err := db.Create(olt).Error; err != nil {
		return err
	}

	plan := &model.ServicePlan{
		TenantID:  tenant.ID,
		Name:      "Home-10M",
		Bandwidth: "10M/10M",
		Price:     150000,
		Type:      string(types.SubscriptionPPPoE),
	}
	if err := db.Create(plan).Error; err != nil {
		return err
	}

	names := []struct {
		name, username, phone string
	}{
		{"Budi Santoso", "budi01", "6281234500001"},
		{"Siti Rahma", "siti02", "6281234500002"},
		{"Agus Wijaya", "agus03", "6281234500003"},
	}
	due := time.Now().AddDate(0, 0, -3)
	for i, n := range names {
		cust := &model.Customer{
			TenantID: tenant.ID,
			Name:     n.name,
			Username: n.username,
			Phone:    n.phone,
			Type:     types.SubscriptionPPPoE,
			Status:   model.CustomerActive,
			PlanID:   &plan.ID,
			RouterID: &router.ID,
		}
		if err := db.Create(cust).Error; err != nil {
			return err
		}

		// Unique trailing digits make the amount itself the payment key.
		inv := &model.Invoice{
			TenantID:   tenant.ID,
			CustomerID: cust.ID,
			Amount:     float64(150000 + i + 45),
			Status:     model.InvoiceUnpaid,
			DueDate:    due,
		}
		if err := db.Create(inv).Error; err != nil {
			return err
		}
	}

	fmt.Printf("seeded tenant %s with %d customers\n", tenant.ID, len(names))
	return nil
}
