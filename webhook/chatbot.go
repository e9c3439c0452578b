package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/servicex-id/netops/model"
)

type chatbotPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

type chatbotReply struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply"`
}

const replyUnknown = "Maaf, perintah tidak dikenali. Ketik *!help* untuk bantuan."

// handleChatbot answers subscriber self-service commands arriving from a
// WhatsApp gateway. The sender's phone number is the identity; the reply
// text goes back to the gateway for delivery.
func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var payload chatbotPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	sender := normalizePhone(payload.From)
	body := strings.ToLower(strings.TrimSpace(payload.Message))
	if sender == "" || body == "" {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	reply := replyUnknown
	switch {
	case body == "!help":
		reply = "*ServiceX Bot Assistant*\n\nKetik perintah berikut:\n*!tagihan* - Cek tagihan internet\n*!gangguan [pesan]* - Lapor gangguan\n*!profil* - Cek info akun"
	case body == "!tagihan":
		reply = s.replyBilling(r, sender)
	case strings.HasPrefix(body, "!gangguan"):
		reply = s.replyComplaint(r, sender, strings.TrimSpace(strings.TrimPrefix(body, "!gangguan")))
	case body == "!profil":
		reply = s.replyProfile(r, sender)
	}

	s.writeJSON(w, http.StatusOK, chatbotReply{Success: true, Reply: reply})
}

func (s *Server) replyBilling(r *http.Request, sender string) string {
	cust, err := s.engine.Store().CustomerByPhone(r.Context(), sender)
	if err != nil {
		return "Mohon maaf, nomor WhatsApp Anda tidak terdaftar dalam sistem kami. Silakan hubungi admin."
	}
	invoices, err := s.engine.Store().UnpaidInvoices(r.Context(), cust.ID)
	if err != nil || len(invoices) == 0 {
		return fmt.Sprintf("Halo *%s*, tidak ada tagihan yang belum dibayar. Terima kasih telah tepat waktu!", cust.Name)
	}
	inv := invoices[0]
	return fmt.Sprintf(
		"Halo *%s*,\n\nTagihan Anda bulan ini adalah *%s*\nJatuh tempo: *%s*\n\nSilakan lakukan pembayaran untuk menghindari isolir otomatis. Terima kasih!",
		cust.Name, formatRupiah(inv.Amount), inv.DueDate.Format("02/01/2006"))
}

func (s *Server) replyComplaint(r *http.Request, sender, complaint string) string {
	if complaint == "" {
		return "Silahkan sertakan detail gangguan.\n\nContoh:\n*!gangguan Internet mati sejak pagi, lampu PON kedap-kedip merah*"
	}
	cust, err := s.engine.Store().CustomerByPhone(r.Context(), sender)
	if err != nil {
		return "Maaf, hanya pelanggan terdaftar yang dapat melaporkan gangguan via bot."
	}
	ticket := &model.Ticket{
		TenantID:   cust.TenantID,
		CustomerID: cust.ID,
		Subject:    "Laporan Gangguan via WhatsApp",
		Message:    complaint,
	}
	if err := s.engine.Store().CreateTicket(r.Context(), ticket); err != nil {
		s.log.Error().Err(err).Msg("creating ticket")
		return "Mohon maaf, laporan Anda gagal tersimpan. Silakan coba lagi."
	}
	return fmt.Sprintf(
		"Terima kasih *%s*.\n\nLaporan gangguan Anda telah masuk ke tim support kami dengan *Tiket %s* dan akan segera ditangani teknisi kami. Mohon ditunggu ya!",
		cust.Name, ticket.ShortRef())
}

func (s *Server) replyProfile(r *http.Request, sender string) string {
	cust, err := s.engine.Store().CustomerByPhone(r.Context(), sender)
	if err != nil {
		return "Mohon maaf, nomor WhatsApp Anda tidak terdaftar dalam sistem kami."
	}
	plan := "Tidak ada"
	if cust.Plan != nil {
		plan = cust.Plan.Name
	}
	status := "❌ " + cust.Status
	if cust.Status == model.CustomerActive {
		status = "✅ Aktif"
	}
	return fmt.Sprintf("*Profil Pelanggan*\n\nNama: %s\nPaket: %s\nStatus: %s", cust.Name, plan, status)
}

// normalizePhone strips everything but digits and rewrites the local 0
// prefix to the 62 country code, matching how gateways report senders.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}

// formatRupiah renders an amount as "Rp 150.045" with dot thousand
// separators. Invoice amounts are whole rupiah.
func formatRupiah(amount float64) string {
	n := int64(amount)
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := "Rp " + strings.Join(parts, ".")
	if n < 0 {
		out = "-" + out
	}
	return out
}
