package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicex-id/netops/model"
)

func postChatbot(t *testing.T, url, from, message string) chatbotReply {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"from": from, "message": message})
	resp, err := http.Post(url+"/webhooks/chatbot", "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out chatbotReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	return out
}

func TestChatbotHelp(t *testing.T) {
	srv, _ := newTestServer(t)
	out := postChatbot(t, srv.URL, "6281234500001", "!help")
	assert.Contains(t, out.Reply, "ServiceX Bot Assistant")
	assert.Contains(t, out.Reply, "!tagihan")
}

func TestChatbotUnknownCommand(t *testing.T) {
	srv, _ := newTestServer(t)
	out := postChatbot(t, srv.URL, "6281234500001", "halo kak")
	assert.Equal(t, replyUnknown, out.Reply)
}

func TestChatbotBilling(t *testing.T) {
	srv, st := newTestServer(t)
	_, cust := seedCustomer(t, st, "6281234500001")
	inv := &model.Invoice{
		TenantID:   cust.TenantID,
		CustomerID: cust.ID,
		Amount:     150045,
		Status:     model.InvoiceUnpaid,
		DueDate:    time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.DB().Create(inv).Error)

	out := postChatbot(t, srv.URL, "6281234500001", "!tagihan")
	assert.Contains(t, out.Reply, "Budi Santoso")
	assert.Contains(t, out.Reply, "Rp 150.045")
	assert.Contains(t, out.Reply, "05/09/2026")
}

func TestChatbotBillingNothingDue(t *testing.T) {
	srv, st := newTestServer(t)
	seedCustomer(t, st, "6281234500001")

	out := postChatbot(t, srv.URL, "6281234500001", "!tagihan")
	assert.Contains(t, out.Reply, "tidak ada tagihan")
}

func TestChatbotBillingUnknownSender(t *testing.T) {
	srv, _ := newTestServer(t)
	out := postChatbot(t, srv.URL, "6289999999999", "!tagihan")
	assert.Contains(t, out.Reply, "tidak terdaftar")
}

func TestChatbotLocalPhonePrefixNormalized(t *testing.T) {
	srv, st := newTestServer(t)
	seedCustomer(t, st, "6281234500001")

	// Gateways sometimes report the local 08… form.
	out := postChatbot(t, srv.URL, "081234500001", "!profil")
	assert.Contains(t, out.Reply, "Budi Santoso")
	assert.Contains(t, out.Reply, "Home-10M")
	assert.Contains(t, out.Reply, "Aktif")
}

func TestChatbotComplaintCreatesTicket(t *testing.T) {
	srv, st := newTestServer(t)
	_, cust := seedCustomer(t, st, "6281234500001")

	out := postChatbot(t, srv.URL, "6281234500001", "!gangguan internet mati sejak pagi")
	assert.Contains(t, out.Reply, "Tiket #")

	var ticket model.Ticket
	require.NoError(t, st.DB().First(&ticket, "customer_id = ?", cust.ID).Error)
	assert.Equal(t, "internet mati sejak pagi", ticket.Message)
	assert.Equal(t, "OPEN", ticket.Status)
	assert.Contains(t, out.Reply, fmt.Sprintf("Tiket %s", ticket.ShortRef()))
}

func TestChatbotComplaintWithoutDetail(t *testing.T) {
	srv, st := newTestServer(t)
	seedCustomer(t, st, "6281234500001")

	out := postChatbot(t, srv.URL, "6281234500001", "!gangguan")
	assert.Contains(t, out.Reply, "sertakan detail gangguan")

	var count int64
	st.DB().Model(&model.Ticket{}).Count(&count)
	assert.Zero(t, count)
}

func TestChatbotInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/webhooks/chatbot", "application/json", bytes.NewBufferString(`{"from":"","message":""}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"6281234500001", "6281234500001"},
		{"081234500001", "6281234500001"},
		{"+62 812-3450-0001", "6281234500001"},
		{"62812345@c.us", "62812345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizePhone(tt.in); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{150045, "Rp 150.045"},
		{1500000, "Rp 1.500.000"},
		{999, "Rp 999"},
		{0, "Rp 0"},
	}
	for _, tt := range tests {
		if got := formatRupiah(tt.in); got != tt.want {
			t.Errorf("formatRupiah(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
